package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// Resource wraps a JSON object subtree — a FHIR resource or a complex
// type nested inside one — as a FHIRPath Value. Multiple Resource values
// may share the same backing JSON slice; navigation never copies it.
//
// A Resource optionally carries a TypeInfo, set only through
// NewTypedResource or WithTypeInfo (property navigation builds Resources
// with NewResource and attaches none), and an extSibling
// map caching, for each primitive field name, the parsed "_name" sibling
// object FHIR uses to attach extensions/ids to primitives.
type Resource struct {
	data       []byte
	info       TypeInfo
	fields     map[string]Value
	extSibling map[string]*Resource
}

// NewResource creates a Resource from JSON bytes with no known schema type.
func NewResource(data []byte) *Resource {
	return &Resource{data: data, fields: make(map[string]Value)}
}

// NewTypedResource creates a Resource whose TypeInfo is already known,
// e.g. because the evaluator resolved it via the SchemaProvider.
func NewTypedResource(data []byte, info TypeInfo) *Resource {
	return &Resource{data: data, info: info, fields: make(map[string]Value)}
}

// WithTypeInfo returns a copy of the Resource carrying the given TypeInfo.
// The underlying JSON is shared, not copied.
func (r *Resource) WithTypeInfo(info TypeInfo) *Resource {
	return &Resource{data: r.data, info: info, fields: r.fields, extSibling: r.extSibling}
}

// TypeInfo returns the schema-resolved type, which is zero if none was set.
func (r *Resource) TypeInfo() TypeInfo {
	return r.info
}

// FHIR complex-type names the structural inference heuristic below can produce.
const (
	typeQuantity        = "Quantity"
	typeCoding          = "Coding"
	typeCodeableConcept = "CodeableConcept"
	typeReference       = "Reference"
	typePeriod          = "Period"
	typeIdentifier      = "Identifier"
	typeRange           = "Range"
	typeRatio           = "Ratio"
	typeAttachment      = "Attachment"
	typeHumanName       = "HumanName"
	typeAddress         = "Address"
	typeContactPoint    = "ContactPoint"
	typeAnnotation      = "Annotation"
	typeObject          = "Object"
)

// Type returns the FHIR type of this object: the TypeInfo name if one was
// set, else the explicit "resourceType" field, else a best-effort
// structural inference.
func (r *Resource) Type() string {
	if !r.info.IsZero() {
		return r.info.Name
	}
	if rt, err := jsonparser.GetString(r.data, "resourceType"); err == nil {
		return rt
	}
	return r.inferType()
}

// inferType guesses a FHIR complex-type name from the object's shape.
// Used whenever the Resource has neither a TypeInfo nor a "resourceType"
// field, whether or not a SchemaProvider is configured.
func (r *Resource) inferType() string {
	if t := r.inferQuantityType(); t != "" {
		return t
	}
	if t := r.inferCodingType(); t != "" {
		return t
	}
	if t := r.inferComplexTypes(); t != "" {
		return t
	}
	return typeObject
}

func (r *Resource) inferQuantityType() string {
	if r.hasField("value") && (r.hasField("unit") || r.hasField("code") || r.hasField("system")) {
		return typeQuantity
	}
	return ""
}

func (r *Resource) inferCodingType() string {
	if r.hasField("system") && r.hasField("code") && !r.hasField("value") {
		return typeCoding
	}
	return ""
}

func (r *Resource) inferComplexTypes() string {
	switch {
	case r.hasArrayField("coding"):
		return typeCodeableConcept
	case r.hasField("reference"):
		return typeReference
	case r.hasField("start") || r.hasField("end"):
		return typePeriod
	case r.hasField("system") && r.hasStringField("value"):
		return typeIdentifier
	case r.hasField("low") || r.hasField("high"):
		return typeRange
	case r.hasField("numerator") || r.hasField("denominator"):
		return typeRatio
	case r.hasField("contentType"):
		return typeAttachment
	case r.hasField("family") || r.hasArrayField("given"):
		return typeHumanName
	case r.hasField("city") || r.hasField("postalCode"):
		return typeAddress
	case r.hasField("system") && r.hasField("use"):
		return typeContactPoint
	case r.hasField("text") && (r.hasField("time") || r.hasField("authorReference") || r.hasField("authorString")):
		return typeAnnotation
	}
	return ""
}

func (r *Resource) hasArrayField(name string) bool {
	_, dataType, _, err := jsonparser.Get(r.data, name)
	return err == nil && dataType == jsonparser.Array
}

func (r *Resource) hasField(name string) bool {
	_, _, _, err := jsonparser.Get(r.data, name) //nolint:dogsled
	return err == nil
}

func (r *Resource) hasStringField(name string) bool {
	_, dataType, _, err := jsonparser.Get(r.data, name)
	return err == nil && dataType == jsonparser.String
}

// Equal returns true if other is a Resource over byte-identical JSON.
func (r *Resource) Equal(other Value) bool {
	if o, ok := other.(*Resource); ok {
		return bytes.Equal(r.data, o.data)
	}
	return false
}

// Equivalent is the same as Equal for Resource.
func (r *Resource) Equivalent(other Value) bool {
	return r.Equal(other)
}

// String returns the JSON representation.
func (r *Resource) String() string {
	return string(r.data)
}

// IsEmpty is always false for a materialized Resource.
func (r *Resource) IsEmpty() bool {
	return false
}

// Data returns the raw JSON backing this Resource. Shared, never copied.
func (r *Resource) Data() []byte {
	return r.data
}

// Get retrieves a direct child field, caching the converted Value.
func (r *Resource) Get(field string) (Value, bool) {
	if v, ok := r.fields[field]; ok {
		return v, true
	}
	value, dataType, _, err := jsonparser.Get(r.data, field)
	if err != nil {
		return nil, false
	}
	v := jsonValueToFHIRValue(value, dataType)
	r.fields[field] = v
	return v, v != nil
}

// GetCollection retrieves a field as a Collection: arrays flatten, scalars
// become singletons, absent fields return the empty Collection.
func (r *Resource) GetCollection(field string) Collection {
	value, dataType, _, err := jsonparser.Get(r.data, field)
	if err != nil {
		return Collection{}
	}
	if dataType == jsonparser.Array {
		return jsonArrayToCollection(value)
	}
	v := jsonValueToFHIRValue(value, dataType)
	if v == nil {
		return Collection{}
	}
	return Collection{v}
}

// PrimitiveExtensionSibling returns the FHIR "_name" sibling element
// attached to a primitive field, if present. FHIR attaches extensions to
// primitives through this sibling rather than on the primitive itself.
// extension() does not call it; it reads only a Resource receiver's own
// extension array.
func (r *Resource) PrimitiveExtensionSibling(field string) (*Resource, bool) {
	if r.extSibling == nil {
		r.extSibling = make(map[string]*Resource)
	}
	if sib, ok := r.extSibling[field]; ok {
		return sib, sib != nil
	}
	raw, dataType, _, err := jsonparser.Get(r.data, "_"+field)
	if err != nil || dataType != jsonparser.Object {
		r.extSibling[field] = nil
		return nil, false
	}
	sib := NewResource(raw)
	r.extSibling[field] = sib
	return sib, true
}

// ExtensionValues returns the `extension` array of this Resource.
func (r *Resource) ExtensionValues() Collection {
	return r.GetCollection("extension")
}

// Keys returns all field names in the object.
func (r *Resource) Keys() []string {
	var keys []string
	//nolint:errcheck // ObjectEach errors only for non-objects; r.data always is one
	jsonparser.ObjectEach(r.data, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		keys = append(keys, string(key))
		return nil
	})
	return keys
}

// Children returns every direct child value, flattening array fields and
// skipping FHIR's "_name" primitive-extension siblings (they are not
// themselves navigable children).
func (r *Resource) Children() Collection {
	var result Collection
	//nolint:errcheck // ObjectEach errors only for non-objects; r.data always is one
	jsonparser.ObjectEach(r.data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if len(key) > 0 && key[0] == '_' {
			return nil
		}
		if dataType == jsonparser.Array {
			result = append(result, jsonArrayToCollection(value)...)
		} else if v := jsonValueToFHIRValue(value, dataType); v != nil {
			result = append(result, v)
		}
		return nil
	})
	return result
}

// jsonValueToFHIRValue converts one JSON scalar/object into a Value.
func jsonValueToFHIRValue(data []byte, dataType jsonparser.ValueType) Value {
	switch dataType {
	case jsonparser.String:
		var s string
		if err := json.Unmarshal(append([]byte{'"'}, append(data, '"')...), &s); err != nil {
			s = string(data)
		}
		return NewString(s)

	case jsonparser.Number:
		s := string(data)
		if !strings.ContainsAny(s, ".eE") {
			if i, err := jsonparser.ParseInt(data); err == nil {
				return NewInteger(i)
			}
		}
		d, err := NewDecimal(s)
		if err != nil {
			return nil
		}
		return d

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil
		}
		return NewBoolean(b)

	case jsonparser.Object:
		return NewResource(data)

	case jsonparser.Array, jsonparser.Null:
		return nil
	}
	return nil
}

// jsonArrayToCollection converts a JSON array to a Collection.
func jsonArrayToCollection(data []byte) Collection {
	var result Collection
	//nolint:errcheck // ArrayEach errors only for non-arrays; data is already validated
	jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if v := jsonValueToFHIRValue(value, dataType); v != nil {
			result = append(result, v)
		}
	})
	return result
}

// JSONToCollection converts arbitrary JSON bytes to a Collection: an
// object becomes a singleton Resource, an array flattens, null becomes
// empty, and a bare scalar becomes a singleton primitive.
func JSONToCollection(data []byte) (Collection, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	switch dataType {
	case jsonparser.Object:
		return Collection{NewResource(value)}, nil
	case jsonparser.Array:
		return jsonArrayToCollection(value), nil
	case jsonparser.Null:
		return Collection{}, nil
	default:
		v := jsonValueToFHIRValue(value, dataType)
		if v == nil {
			return Collection{}, nil
		}
		return Collection{v}, nil
	}
}

// ToQuantity converts a Resource shaped like a FHIR Quantity (fields
// "value" plus "unit" or "code") into a Quantity value.
func (r *Resource) ToQuantity() (Quantity, bool) {
	valueBytes, dataType, _, err := jsonparser.Get(r.data, "value")
	if err != nil || dataType != jsonparser.Number {
		return Quantity{}, false
	}
	val, err := decimal.NewFromString(string(valueBytes))
	if err != nil {
		return Quantity{}, false
	}

	unit := ""
	if unitBytes, _, _, err := jsonparser.Get(r.data, "unit"); err == nil {
		unit = string(unitBytes)
	} else if codeBytes, _, _, err := jsonparser.Get(r.data, "code"); err == nil {
		unit = string(codeBytes)
	}
	return NewQuantityFromDecimal(val, unit), true
}
