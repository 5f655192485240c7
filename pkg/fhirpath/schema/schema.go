// Package schema defines the SchemaProvider interface consumed by the
// analyzer (C5) and evaluator (C8) for type resolution, plus a
// StaticProvider default backed by a fixed FHIR R4 element table.
package schema

import "github.com/octofhir/fhirpath-go/pkg/fhirpath/types"

// Constraint is a structural invariant a type declares (FHIR's
// "constraint" element on a StructureDefinition), exposed only for
// conformsTo(); see the Open Question pinned in DESIGN.md — this engine
// never evaluates the constraint's FHIRPath expression itself.
type Constraint struct {
	Key        string
	Severity   string
	Human      string
	Expression string
}

// Element describes one element of a FHIR type: its name, declared
// type(s) (more than one only for choice elements like value[x]), and
// cardinality.
type Element struct {
	Name     string
	Types    []string
	MinCard  int
	MaxCard  int // -1 means unbounded ("*")
	IsChoice bool
}

// Provider resolves FHIR type information for the analyzer and
// evaluator. Implementations are consulted, never mutated.
type Provider interface {
	// GetType returns the TypeInfo for a named FHIR type ("Patient",
	// "HumanName", ...), or false if the type is unknown.
	GetType(name string) (types.TypeInfo, bool)

	// GetElementType returns the declared type name of typeName.element,
	// or false if the type or element is unknown. For choice elements
	// addressed by their base name ("value" for value[x]), returns the
	// first candidate in ChoiceSuffixOrder that's valid for the element.
	GetElementType(typeName, element string) (string, bool)

	// GetElementNames lists every direct element name declared on
	// typeName, used by the analyzer's typo-suggestion search.
	GetElementNames(typeName string) []string

	// GetChoiceTypes returns the candidate types for a choice element
	// (e.g. "value" on Observation returns ["Quantity", "CodeableConcept", ...]),
	// or nil if element isn't a choice element.
	GetChoiceTypes(typeName, element string) []string

	// GetBaseType returns the direct supertype of typeName ("DomainResource"
	// for "Patient"), or false at the root of the hierarchy.
	GetBaseType(typeName string) (string, bool)

	// IsResourceType reports whether name is a FHIR resource type as
	// opposed to a complex/primitive data type.
	IsResourceType(name string) bool

	// GetConstraints returns the structural constraints declared
	// directly on typeName. StaticProvider always returns nil; see
	// DESIGN.md's pinned Open Question on this short-cut.
	GetConstraints(typeName string) []Constraint
}

// ChoiceSuffixOrder is the fixed precedence SPEC_FULL.md §E.2 pins for
// resolving a choice element addressed by its base name (e.g. `value`
// rather than `valueQuantity`): the first type in this order present on
// the actual resource instance wins.
var ChoiceSuffixOrder = []string{
	"String", "Boolean", "Integer", "Decimal", "Date", "DateTime", "Time",
	"Quantity", "Code", "Uri", "Canonical", "Reference", "Coding",
	"CodeableConcept", "Period", "Identifier", "Range", "Ratio",
	"Attachment", "HumanName", "Address", "ContactPoint", "Annotation",
}
