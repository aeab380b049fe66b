package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldType is a sealed interface over the field type variants.
type FieldType interface {
	fmt.Stringer
	json.Marshaler

	// Kind returns the variant name used in JSON and in type-mismatch errors.
	Kind() string

	fieldType() // Sealed
}

// Text is a plain string field with an optional maximum length.
type Text struct {
	MaxLength *uint32 `json:"max_length,omitempty"`
}

// RichText is a formatted text field.
type RichText struct{}

// Integer is a 64-bit integer field with optional inclusive bounds.
type Integer struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// Float is a floating point field with an optional display precision.
type Float struct {
	Precision *uint8 `json:"precision,omitempty"`
}

// Boolean is a true/false field.
type Boolean struct{}

// DateTime is a timestamp field.
type DateTime struct{}

// Enum is a field restricted to a fixed set of variants.
type Enum struct {
	Variants EnumVariants
}

// JSON is a free-form document field.
type JSON struct{}

// Relation references records of another schema.
type Relation struct {
	Target      SchemaName  `json:"target"`
	Cardinality Cardinality `json:"cardinality"`
}

// Array is a list of values of a single element type.
type Array struct {
	Element FieldType
}

// Composite is an embedded object made of sub-fields.
type Composite struct {
	Fields []FieldDefinition
}

func (Text) fieldType()      {}
func (RichText) fieldType()  {}
func (Integer) fieldType()   {}
func (Float) fieldType()     {}
func (Boolean) fieldType()   {}
func (DateTime) fieldType()  {}
func (Enum) fieldType()      {}
func (JSON) fieldType()      {}
func (Relation) fieldType()  {}
func (Array) fieldType()     {}
func (Composite) fieldType() {}

func (Text) Kind() string      { return "Text" }
func (RichText) Kind() string  { return "RichText" }
func (Integer) Kind() string   { return "Integer" }
func (Float) Kind() string     { return "Float" }
func (Boolean) Kind() string   { return "Boolean" }
func (DateTime) Kind() string  { return "DateTime" }
func (Enum) Kind() string      { return "Enum" }
func (JSON) Kind() string      { return "Json" }
func (Relation) Kind() string  { return "Relation" }
func (Array) Kind() string     { return "Array" }
func (Composite) Kind() string { return "Composite" }

func (Text) String() string     { return "Text" }
func (RichText) String() string { return "RichText" }
func (Integer) String() string  { return "Integer" }
func (Float) String() string    { return "Float" }
func (Boolean) String() string  { return "Boolean" }
func (DateTime) String() string { return "DateTime" }
func (t Enum) String() string   { return "Enum" + t.Variants.String() }
func (JSON) String() string     { return "Json" }
func (t Relation) String() string {
	return fmt.Sprintf("Relation(%s, %s)", t.Target, t.Cardinality)
}
func (t Array) String() string { return "Array<" + t.Element.String() + ">" }
func (t Composite) String() string {
	return fmt.Sprintf("Composite(%d fields)", len(t.Fields))
}

// Uint32Ptr returns a pointer to v, for building Text constraints.
func Uint32Ptr(v uint32) *uint32 { return &v }

// Int64Ptr returns a pointer to v, for building Integer constraints.
func Int64Ptr(v int64) *int64 { return &v }

// EnumVariants is a non-empty list of unique, non-empty variant names.
type EnumVariants struct {
	values []string
}

// NewEnumVariants validates the variant list.
func NewEnumVariants(values ...string) (EnumVariants, error) {
	if len(values) == 0 {
		return EnumVariants{}, newSchemaError(ErrCodeEmptyEnumVariants, "", "enum variants must not be empty")
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			return EnumVariants{}, newSchemaError(ErrCodeEmptyEnumVariant, "", "enum variant must not be an empty string")
		}
		if seen[v] {
			return EnumVariants{}, newSchemaError(ErrCodeDuplicateEnumVariant, v, "duplicate enum variant '%s'", v)
		}
		seen[v] = true
	}
	return EnumVariants{values: append([]string(nil), values...)}, nil
}

// MustEnumVariants is like NewEnumVariants but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEnumVariants(values ...string) EnumVariants {
	ev, err := NewEnumVariants(values...)
	if err != nil {
		panic(err)
	}
	return ev
}

// Values returns a copy of the variants in declaration order.
func (ev EnumVariants) Values() []string {
	return append([]string(nil), ev.values...)
}

// Contains reports whether v is one of the variants.
func (ev EnumVariants) Contains(v string) bool {
	for _, x := range ev.values {
		if x == v {
			return true
		}
	}
	return false
}

func (ev EnumVariants) String() string {
	return "[" + strings.Join(ev.values, ", ") + "]"
}

func (ev EnumVariants) MarshalJSON() ([]byte, error) {
	if ev.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ev.values)
}

func (ev *EnumVariants) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	parsed, err := NewEnumVariants(values...)
	if err != nil {
		return err
	}
	*ev = parsed
	return nil
}

type taggedType struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (t Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(taggedType{Type: "Text", Data: plain(t)})
}

func (RichText) MarshalJSON() ([]byte, error) { return json.Marshal(taggedType{Type: "RichText"}) }

func (t Integer) MarshalJSON() ([]byte, error) {
	type plain Integer
	return json.Marshal(taggedType{Type: "Integer", Data: plain(t)})
}

func (t Float) MarshalJSON() ([]byte, error) {
	type plain Float
	return json.Marshal(taggedType{Type: "Float", Data: plain(t)})
}

func (Boolean) MarshalJSON() ([]byte, error)  { return json.Marshal(taggedType{Type: "Boolean"}) }
func (DateTime) MarshalJSON() ([]byte, error) { return json.Marshal(taggedType{Type: "DateTime"}) }
func (JSON) MarshalJSON() ([]byte, error)     { return json.Marshal(taggedType{Type: "Json"}) }

func (t Enum) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedType{Type: "Enum", Data: t.Variants})
}

func (t Relation) MarshalJSON() ([]byte, error) {
	type plain Relation
	return json.Marshal(taggedType{Type: "Relation", Data: plain(t)})
}

func (t Array) MarshalJSON() ([]byte, error) {
	if t.Element == nil {
		return nil, fmt.Errorf("array field type has no element type")
	}
	return json.Marshal(taggedType{Type: "Array", Data: t.Element})
}

func (t Composite) MarshalJSON() ([]byte, error) {
	fields := t.Fields
	if fields == nil {
		fields = []FieldDefinition{}
	}
	return json.Marshal(taggedType{Type: "Composite", Data: fields})
}

// UnmarshalFieldType decodes the tagged JSON form of a field type.
func UnmarshalFieldType(data []byte) (FieldType, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode field type: %w", err)
	}

	hasData := len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null"))
	decode := func(v any) error {
		if !hasData {
			return nil
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case "Text":
		var t Text
		if err := decode(&t); err != nil {
			return nil, err
		}
		return t, nil
	case "RichText":
		return RichText{}, nil
	case "Integer":
		var t Integer
		if err := decode(&t); err != nil {
			return nil, err
		}
		if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
			return nil, invalidRangeError(*t.Min, *t.Max)
		}
		return t, nil
	case "Float":
		var t Float
		if err := decode(&t); err != nil {
			return nil, err
		}
		return t, nil
	case "Boolean":
		return Boolean{}, nil
	case "DateTime":
		return DateTime{}, nil
	case "Json":
		return JSON{}, nil
	case "Enum":
		var ev EnumVariants
		if !hasData {
			return nil, newSchemaError(ErrCodeEmptyEnumVariants, "", "enum variants must not be empty")
		}
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return Enum{Variants: ev}, nil
	case "Relation":
		var t Relation
		if !hasData {
			return nil, fmt.Errorf("decode Relation: missing target")
		}
		if err := decode(&t); err != nil {
			return nil, err
		}
		if t.Target.IsZero() {
			return nil, fmt.Errorf("decode Relation: missing target")
		}
		return t, nil
	case "Array":
		if !hasData {
			return nil, fmt.Errorf("decode Array: missing element type")
		}
		elem, err := UnmarshalFieldType(env.Data)
		if err != nil {
			return nil, fmt.Errorf("decode Array: %w", err)
		}
		return Array{Element: elem}, nil
	case "Composite":
		var fields []FieldDefinition
		if err := decode(&fields); err != nil {
			return nil, err
		}
		return Composite{Fields: fields}, nil
	case "":
		return nil, fmt.Errorf("decode field type: missing type tag")
	default:
		return nil, fmt.Errorf("decode field type: unknown type %q", env.Type)
	}
}

// SameType reports whether two field types are structurally identical,
// constraints included.
func SameType(a, b FieldType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// IsTextLike reports whether values of t are strings that support
// substring and prefix matching.
func IsTextLike(t FieldType) bool {
	switch t.(type) {
	case Text, RichText, Enum:
		return true
	}
	return false
}

func invalidRangeError(lo, hi int64) *SchemaError {
	return newSchemaError(ErrCodeInvalidIntegerRange, strconv.FormatInt(lo, 10)+".."+strconv.FormatInt(hi, 10),
		"invalid integer range: min (%d) > max (%d)", lo, hi)
}

// validateFieldType checks constraints that the plain struct fields cannot
// enforce on their own.
func validateFieldType(t FieldType) error {
	switch ft := t.(type) {
	case nil:
		return fmt.Errorf("field type is missing")
	case Integer:
		if ft.Min != nil && ft.Max != nil && *ft.Min > *ft.Max {
			return invalidRangeError(*ft.Min, *ft.Max)
		}
	case Enum:
		if len(ft.Variants.values) == 0 {
			return newSchemaError(ErrCodeEmptyEnumVariants, "", "enum variants must not be empty")
		}
	case Relation:
		if ft.Target.IsZero() {
			return fmt.Errorf("relation has no target schema")
		}
	case Array:
		if err := validateFieldType(ft.Element); err != nil {
			return fmt.Errorf("array element: %w", err)
		}
	case Composite:
		if err := validateFields(ft.Fields); err != nil {
			return err
		}
	}
	return nil
}
