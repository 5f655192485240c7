// Package types defines the FHIRPath runtime value model: the tagged union
// of variants every expression result is built from, and the Collection
// that wraps them.
package types

// Value is the base interface implemented by every FHIRPath runtime value.
type Value interface {
	// Type returns the FHIRPath type name (e.g. "Integer", "Patient").
	Type() string

	// Equal compares exact equality, the `=` operator.
	Equal(other Value) bool

	// Equivalent compares equivalence, the `~` operator: case/whitespace
	// insensitive for String, order-insensitive for Collection.
	Equivalent(other Value) bool

	// String returns a human-readable representation.
	String() string

	// IsEmpty reports whether this value represents the empty result.
	// None of the concrete variants are ever empty themselves; Empty is
	// represented by a zero-length Collection, never as an element.
	IsEmpty() bool
}

// Comparable is implemented by types that support ordering (`<`, `<=`, `>`, `>=`).
type Comparable interface {
	Value
	// Compare returns -1/0/1, or an error if the comparison is undefined
	// (e.g. mismatched partial date/time precision, incompatible units).
	Compare(other Value) (int, error)
}

// Numeric is implemented by the numeric variants (Integer, Decimal).
type Numeric interface {
	Value
	ToDecimal() Decimal
}

// TypeNamespace distinguishes FHIRPath's two type universes.
type TypeNamespace string

const (
	// NamespaceSystem holds FHIRPath's primitive types (String, Integer, ...).
	NamespaceSystem TypeNamespace = "System"
	// NamespaceFHIR holds FHIR schema types (Patient, HumanName, ...).
	NamespaceFHIR TypeNamespace = "FHIR"
)

// TypeInfo describes the static type of a value: its name, namespace,
// and cardinality. A Resource carries one only when it was built with
// NewTypedResource or WithTypeInfo; property navigation attaches none, so
// Resource.Type() then falls back to "resourceType" or structural inference.
type TypeInfo struct {
	Namespace TypeNamespace
	Name      string
	// Singleton is true when the element's schema cardinality is 0..1 or 1..1.
	Singleton bool
}

// IsZero reports whether this TypeInfo carries no information.
func (t TypeInfo) IsZero() bool {
	return t.Name == ""
}

// String renders "Namespace.Name", or just Name if namespace is unset.
func (t TypeInfo) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return string(t.Namespace) + "." + t.Name
}

// TypeInfoObject is the Value produced by `type()` and by bare namespace
// identifiers such as `FHIR.Patient` used on the right of `is`/`as`.
type TypeInfoObject struct {
	Info TypeInfo
}

// NewTypeInfoObject wraps a TypeInfo as a Value.
func NewTypeInfoObject(info TypeInfo) TypeInfoObject {
	return TypeInfoObject{Info: info}
}

// Type returns "TypeInfo" (the type of a type-info object, not the type it describes).
func (t TypeInfoObject) Type() string { return "TypeInfo" }

// Equal compares two TypeInfoObjects by namespace and name.
func (t TypeInfoObject) Equal(other Value) bool {
	o, ok := other.(TypeInfoObject)
	return ok && t.Info.Namespace == o.Info.Namespace && t.Info.Name == o.Info.Name
}

// Equivalent is the same as Equal for TypeInfoObject.
func (t TypeInfoObject) Equivalent(other Value) bool { return t.Equal(other) }

// String renders the described type's namespace-qualified name.
func (t TypeInfoObject) String() string { return t.Info.String() }

// IsEmpty is always false for a materialized TypeInfoObject.
func (t TypeInfoObject) IsEmpty() bool { return false }
