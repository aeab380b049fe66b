package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/schemaforge/internal/ir"
)

// DefaultValue is a sealed interface over literal field defaults.
type DefaultValue interface {
	fmt.Stringer
	json.Marshaler

	// Value converts the default into a runtime value.
	Value() ir.Value

	defaultValue() // Sealed
}

// DefaultString is a string default.
type DefaultString string

// DefaultInteger is an integer default.
type DefaultInteger int64

// DefaultFloat is a float default kept in its textual form so equal
// defaults compare equal with ==.
type DefaultFloat struct {
	s string
}

// DefaultBoolean is a boolean default.
type DefaultBoolean bool

func (DefaultString) defaultValue()  {}
func (DefaultInteger) defaultValue() {}
func (DefaultFloat) defaultValue()   {}
func (DefaultBoolean) defaultValue() {}

// NewDefaultFloat validates s as a float literal.
func NewDefaultFloat(s string) (DefaultFloat, error) {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return DefaultFloat{}, newSchemaError(ErrCodeInvalidFloatString, s,
			"invalid float string '%s': must be a valid f64", s)
	}
	return DefaultFloat{s: s}, nil
}

// MustDefaultFloat is like NewDefaultFloat but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDefaultFloat(s string) DefaultFloat {
	f, err := NewDefaultFloat(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (d DefaultString) String() string  { return strconv.Quote(string(d)) }
func (d DefaultInteger) String() string { return strconv.FormatInt(int64(d), 10) }
func (d DefaultFloat) String() string   { return d.s }
func (d DefaultBoolean) String() string { return strconv.FormatBool(bool(d)) }

func (d DefaultString) Value() ir.Value  { return ir.Text(d) }
func (d DefaultInteger) Value() ir.Value { return ir.Integer(d) }
func (d DefaultBoolean) Value() ir.Value { return ir.Boolean(d) }
func (d DefaultFloat) Value() ir.Value {
	f, _ := strconv.ParseFloat(d.s, 64)
	return ir.Float(f)
}

type taggedDefault struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func (d DefaultString) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedDefault{Type: "String", Value: string(d)})
}

func (d DefaultInteger) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedDefault{Type: "Integer", Value: int64(d)})
}

func (d DefaultFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedDefault{Type: "Float", Value: d.s})
}

func (d DefaultBoolean) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedDefault{Type: "Boolean", Value: bool(d)})
}

// UnmarshalDefaultValue decodes the tagged JSON form of a default.
func UnmarshalDefaultValue(data []byte) (DefaultValue, error) {
	var env struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode default: %w", err)
	}

	switch env.Type {
	case "String":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode String default: %w", err)
		}
		return DefaultString(s), nil
	case "Integer":
		var n int64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return nil, fmt.Errorf("decode Integer default: %w", err)
		}
		return DefaultInteger(n), nil
	case "Float":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode Float default: %w", err)
		}
		return NewDefaultFloat(s)
	case "Boolean":
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode Boolean default: %w", err)
		}
		return DefaultBoolean(b), nil
	default:
		return nil, fmt.Errorf("decode default: unknown type %q", env.Type)
	}
}

// FieldModifier is a sealed interface over field modifiers.
type FieldModifier interface {
	fmt.Stringer
	json.Marshaler

	fieldModifier() // Sealed
}

// Required marks a field that must always hold a value.
type Required struct{}

// Indexed marks a field that gets a secondary index.
type Indexed struct{}

// Default supplies a value for records that omit the field.
type Default struct {
	Value DefaultValue
}

func (Required) fieldModifier() {}
func (Indexed) fieldModifier()  {}
func (Default) fieldModifier()  {}

func (Required) String() string  { return "required" }
func (Indexed) String() string   { return "indexed" }
func (m Default) String() string { return "default(" + m.Value.String() + ")" }

func (Required) MarshalJSON() ([]byte, error) { return []byte(`{"modifier":"Required"}`), nil }
func (Indexed) MarshalJSON() ([]byte, error)  { return []byte(`{"modifier":"Indexed"}`), nil }

func (m Default) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Modifier string       `json:"modifier"`
		Value    DefaultValue `json:"value"`
	}{"Default", m.Value})
}

// UnmarshalFieldModifier decodes the tagged JSON form of a modifier.
func UnmarshalFieldModifier(data []byte) (FieldModifier, error) {
	var env struct {
		Modifier string          `json:"modifier"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode modifier: %w", err)
	}

	switch env.Modifier {
	case "Required":
		return Required{}, nil
	case "Indexed":
		return Indexed{}, nil
	case "Default":
		v, err := UnmarshalDefaultValue(env.Value)
		if err != nil {
			return nil, err
		}
		return Default{Value: v}, nil
	default:
		return nil, fmt.Errorf("decode modifier: unknown modifier %q", env.Modifier)
	}
}
