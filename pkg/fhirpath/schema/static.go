package schema

import "github.com/octofhir/fhirpath-go/pkg/fhirpath/types"

// StaticProvider is the in-core default Provider: a fixed table covering
// a representative slice of FHIR R4 resource and data types, enough to
// drive the analyzer's property-resolution diagnostics and the
// evaluator's choice-type navigation without a full FHIR definitions
// bundle. Callers with a complete StructureDefinition set supply their
// own Provider (e.g. backed by a generated registry) instead.
type StaticProvider struct {
	elements map[string][]Element
	bases    map[string]string
	resource map[string]bool
}

// NewStaticProvider builds the fixed element table.
func NewStaticProvider() *StaticProvider {
	p := &StaticProvider{
		elements: make(map[string][]Element),
		bases:    make(map[string]string),
		resource: make(map[string]bool),
	}
	p.register()
	return p
}

func (p *StaticProvider) add(typeName, base string, isResource bool, elems ...Element) {
	p.elements[typeName] = elems
	if base != "" {
		p.bases[typeName] = base
	}
	p.resource[typeName] = isResource
}

func (p *StaticProvider) register() {
	p.add("Element", "", false,
		Element{Name: "id", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "extension", Types: []string{"Extension"}, MaxCard: -1},
	)
	p.add("BackboneElement", "Element", false,
		Element{Name: "modifierExtension", Types: []string{"Extension"}, MaxCard: -1},
	)
	p.add("Resource", "", true,
		Element{Name: "id", Types: []string{"id"}, MaxCard: 1},
		Element{Name: "meta", Types: []string{"Meta"}, MaxCard: 1},
		Element{Name: "implicitRules", Types: []string{"uri"}, MaxCard: 1},
		Element{Name: "language", Types: []string{"code"}, MaxCard: 1},
	)
	p.add("DomainResource", "Resource", true,
		Element{Name: "text", Types: []string{"Narrative"}, MaxCard: 1},
		Element{Name: "contained", Types: []string{"Resource"}, MaxCard: -1},
		Element{Name: "extension", Types: []string{"Extension"}, MaxCard: -1},
		Element{Name: "modifierExtension", Types: []string{"Extension"}, MaxCard: -1},
	)

	p.add("Extension", "Element", false,
		Element{Name: "url", Types: []string{"uri"}, MaxCard: 1, MinCard: 1},
		Element{Name: "value", Types: ChoiceSuffixOrder, MaxCard: 1, IsChoice: true},
	)
	p.add("Identifier", "Element", false,
		Element{Name: "use", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "type", Types: []string{"CodeableConcept"}, MaxCard: 1},
		Element{Name: "system", Types: []string{"uri"}, MaxCard: 1},
		Element{Name: "value", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "period", Types: []string{"Period"}, MaxCard: 1},
		Element{Name: "assigner", Types: []string{"Reference"}, MaxCard: 1},
	)
	p.add("HumanName", "Element", false,
		Element{Name: "use", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "text", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "family", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "given", Types: []string{"string"}, MaxCard: -1},
		Element{Name: "prefix", Types: []string{"string"}, MaxCard: -1},
		Element{Name: "suffix", Types: []string{"string"}, MaxCard: -1},
		Element{Name: "period", Types: []string{"Period"}, MaxCard: 1},
	)
	p.add("ContactPoint", "Element", false,
		Element{Name: "system", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "value", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "use", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "rank", Types: []string{"positiveInt"}, MaxCard: 1},
		Element{Name: "period", Types: []string{"Period"}, MaxCard: 1},
	)
	p.add("Address", "Element", false,
		Element{Name: "use", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "type", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "text", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "line", Types: []string{"string"}, MaxCard: -1},
		Element{Name: "city", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "district", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "state", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "postalCode", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "country", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "period", Types: []string{"Period"}, MaxCard: 1},
	)
	p.add("Period", "Element", false,
		Element{Name: "start", Types: []string{"dateTime"}, MaxCard: 1},
		Element{Name: "end", Types: []string{"dateTime"}, MaxCard: 1},
	)
	p.add("Coding", "Element", false,
		Element{Name: "system", Types: []string{"uri"}, MaxCard: 1},
		Element{Name: "version", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "code", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "display", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "userSelected", Types: []string{"boolean"}, MaxCard: 1},
	)
	p.add("CodeableConcept", "Element", false,
		Element{Name: "coding", Types: []string{"Coding"}, MaxCard: -1},
		Element{Name: "text", Types: []string{"string"}, MaxCard: 1},
	)
	p.add("Reference", "Element", false,
		Element{Name: "reference", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "type", Types: []string{"uri"}, MaxCard: 1},
		Element{Name: "identifier", Types: []string{"Identifier"}, MaxCard: 1},
		Element{Name: "display", Types: []string{"string"}, MaxCard: 1},
	)
	p.add("Quantity", "Element", false,
		Element{Name: "value", Types: []string{"decimal"}, MaxCard: 1},
		Element{Name: "comparator", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "unit", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "system", Types: []string{"uri"}, MaxCard: 1},
		Element{Name: "code", Types: []string{"code"}, MaxCard: 1},
	)
	p.add("Meta", "Element", false,
		Element{Name: "versionId", Types: []string{"id"}, MaxCard: 1},
		Element{Name: "lastUpdated", Types: []string{"instant"}, MaxCard: 1},
		Element{Name: "profile", Types: []string{"canonical"}, MaxCard: -1},
		Element{Name: "security", Types: []string{"Coding"}, MaxCard: -1},
		Element{Name: "tag", Types: []string{"Coding"}, MaxCard: -1},
	)
	p.add("Narrative", "Element", false,
		Element{Name: "status", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "div", Types: []string{"string"}, MaxCard: 1},
	)

	p.add("Patient", "DomainResource", true,
		Element{Name: "identifier", Types: []string{"Identifier"}, MaxCard: -1},
		Element{Name: "active", Types: []string{"boolean"}, MaxCard: 1},
		Element{Name: "name", Types: []string{"HumanName"}, MaxCard: -1},
		Element{Name: "telecom", Types: []string{"ContactPoint"}, MaxCard: -1},
		Element{Name: "gender", Types: []string{"code"}, MaxCard: 1},
		Element{Name: "birthDate", Types: []string{"date"}, MaxCard: 1},
		Element{Name: "deceased", Types: []string{"boolean", "dateTime"}, MaxCard: 1, IsChoice: true},
		Element{Name: "address", Types: []string{"Address"}, MaxCard: -1},
		Element{Name: "maritalStatus", Types: []string{"CodeableConcept"}, MaxCard: 1},
		Element{Name: "contact", Types: []string{"BackboneElement"}, MaxCard: -1},
		Element{Name: "generalPractitioner", Types: []string{"Reference"}, MaxCard: -1},
		Element{Name: "managingOrganization", Types: []string{"Reference"}, MaxCard: 1},
	)
	p.add("Observation", "DomainResource", true,
		Element{Name: "identifier", Types: []string{"Identifier"}, MaxCard: -1},
		Element{Name: "status", Types: []string{"code"}, MaxCard: 1, MinCard: 1},
		Element{Name: "category", Types: []string{"CodeableConcept"}, MaxCard: -1},
		Element{Name: "code", Types: []string{"CodeableConcept"}, MaxCard: 1, MinCard: 1},
		Element{Name: "subject", Types: []string{"Reference"}, MaxCard: 1},
		Element{Name: "encounter", Types: []string{"Reference"}, MaxCard: 1},
		Element{Name: "effective", Types: []string{"dateTime", "Period"}, MaxCard: 1, IsChoice: true},
		Element{Name: "issued", Types: []string{"instant"}, MaxCard: 1},
		Element{Name: "performer", Types: []string{"Reference"}, MaxCard: -1},
		Element{Name: "value", Types: ChoiceSuffixOrder, MaxCard: 1, IsChoice: true},
		Element{Name: "component", Types: []string{"BackboneElement"}, MaxCard: -1},
	)
	p.add("Condition", "DomainResource", true,
		Element{Name: "identifier", Types: []string{"Identifier"}, MaxCard: -1},
		Element{Name: "clinicalStatus", Types: []string{"CodeableConcept"}, MaxCard: 1},
		Element{Name: "verificationStatus", Types: []string{"CodeableConcept"}, MaxCard: 1},
		Element{Name: "code", Types: []string{"CodeableConcept"}, MaxCard: 1},
		Element{Name: "subject", Types: []string{"Reference"}, MaxCard: 1, MinCard: 1},
		Element{Name: "onset", Types: []string{"string", "dateTime", "Period", "Range", "Age"}, MaxCard: 1, IsChoice: true},
	)
	p.add("Bundle", "Resource", true,
		Element{Name: "type", Types: []string{"code"}, MaxCard: 1, MinCard: 1},
		Element{Name: "total", Types: []string{"unsignedInt"}, MaxCard: 1},
		Element{Name: "entry", Types: []string{"BackboneElement"}, MaxCard: -1},
	)
	p.add("Organization", "DomainResource", true,
		Element{Name: "identifier", Types: []string{"Identifier"}, MaxCard: -1},
		Element{Name: "active", Types: []string{"boolean"}, MaxCard: 1},
		Element{Name: "name", Types: []string{"string"}, MaxCard: 1},
		Element{Name: "telecom", Types: []string{"ContactPoint"}, MaxCard: -1},
		Element{Name: "address", Types: []string{"Address"}, MaxCard: -1},
	)
}

func (p *StaticProvider) GetType(name string) (types.TypeInfo, bool) {
	if _, ok := p.elements[name]; !ok {
		return types.TypeInfo{}, false
	}
	return types.TypeInfo{Namespace: types.NamespaceFHIR, Name: name, Singleton: true}, true
}

// allElements walks typeName's base-type chain, nearest first, so a
// derived type's own elements shadow an inherited one of the same name.
func (p *StaticProvider) allElements(typeName string) []Element {
	var result []Element
	seen := make(map[string]bool)
	for t, ok := typeName, true; ok; t, ok = p.bases[t] {
		for _, e := range p.elements[t] {
			if !seen[e.Name] {
				seen[e.Name] = true
				result = append(result, e)
			}
		}
		if t == "" {
			break
		}
	}
	return result
}

func (p *StaticProvider) findElement(typeName, element string) (Element, bool) {
	for _, e := range p.allElements(typeName) {
		if e.Name == element {
			return e, true
		}
	}
	return Element{}, false
}

func (p *StaticProvider) GetElementType(typeName, element string) (string, bool) {
	e, ok := p.findElement(typeName, element)
	if !ok {
		return "", false
	}
	if len(e.Types) == 0 {
		return "", false
	}
	return e.Types[0], true
}

func (p *StaticProvider) GetElementNames(typeName string) []string {
	elems := p.allElements(typeName)
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = e.Name
	}
	return names
}

func (p *StaticProvider) GetChoiceTypes(typeName, element string) []string {
	e, ok := p.findElement(typeName, element)
	if !ok || !e.IsChoice {
		return nil
	}
	return e.Types
}

func (p *StaticProvider) GetBaseType(typeName string) (string, bool) {
	base, ok := p.bases[typeName]
	return base, ok
}

func (p *StaticProvider) IsResourceType(name string) bool {
	return p.resource[name]
}

// GetConstraints always returns nil: see the pinned Open Question in
// DESIGN.md. conformsTo() checks structural/choice-type shape only.
func (p *StaticProvider) GetConstraints(string) []Constraint {
	return nil
}

var _ Provider = (*StaticProvider)(nil)
