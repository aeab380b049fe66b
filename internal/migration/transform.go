package migration

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/schemaforge/internal/schema"
)

// ValueTransform describes how existing values should be converted when a
// field changes type. It records intent only; lowering does not run a
// conversion pass.
type ValueTransform interface {
	fmt.Stringer
	json.Marshaler

	transform() // Sealed
}

// TransformIdentity keeps values unchanged.
type TransformIdentity struct{}

// TransformIntegerToFloat widens integers to floats.
type TransformIntegerToFloat struct{}

// TransformFloatToInteger truncates floats to integers.
type TransformFloatToInteger struct{}

// TransformToString renders any value as text.
type TransformToString struct{}

// TransformSetDefault replaces every value with a default.
type TransformSetDefault struct {
	Value schema.DefaultValue
}

// TransformSetNull discards existing values.
type TransformSetNull struct{}

func (TransformIdentity) transform()       {}
func (TransformIntegerToFloat) transform() {}
func (TransformFloatToInteger) transform() {}
func (TransformToString) transform()       {}
func (TransformSetDefault) transform()     {}
func (TransformSetNull) transform()        {}

func (TransformIdentity) String() string       { return "identity" }
func (TransformIntegerToFloat) String() string { return "integer_to_float" }
func (TransformFloatToInteger) String() string { return "float_to_integer" }
func (TransformToString) String() string       { return "to_string" }
func (t TransformSetDefault) String() string   { return "set_default(" + t.Value.String() + ")" }
func (TransformSetNull) String() string        { return "set_null" }

func (TransformIdentity) MarshalJSON() ([]byte, error) {
	return []byte(`{"transform":"Identity"}`), nil
}
func (TransformIntegerToFloat) MarshalJSON() ([]byte, error) {
	return []byte(`{"transform":"IntegerToFloat"}`), nil
}
func (TransformFloatToInteger) MarshalJSON() ([]byte, error) {
	return []byte(`{"transform":"FloatToInteger"}`), nil
}
func (TransformToString) MarshalJSON() ([]byte, error) {
	return []byte(`{"transform":"ToString"}`), nil
}
func (TransformSetNull) MarshalJSON() ([]byte, error) {
	return []byte(`{"transform":"SetNull"}`), nil
}
func (t TransformSetDefault) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Transform string              `json:"transform"`
		Value     schema.DefaultValue `json:"value"`
	}{"SetDefault", t.Value})
}

// UnmarshalTransform decodes the tagged JSON form of a transform.
func UnmarshalTransform(data []byte) (ValueTransform, error) {
	var env struct {
		Transform string          `json:"transform"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode transform: %w", err)
	}

	switch env.Transform {
	case "Identity":
		return TransformIdentity{}, nil
	case "IntegerToFloat":
		return TransformIntegerToFloat{}, nil
	case "FloatToInteger":
		return TransformFloatToInteger{}, nil
	case "ToString":
		return TransformToString{}, nil
	case "SetNull":
		return TransformSetNull{}, nil
	case "SetDefault":
		v, err := schema.UnmarshalDefaultValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("decode SetDefault transform: %w", err)
		}
		return TransformSetDefault{Value: v}, nil
	default:
		return nil, fmt.Errorf("decode transform: unknown transform %q", env.Transform)
	}
}

// InferTransform picks the conversion for a type change:
// Integer to Float widens, Float to Integer truncates, anything to Text is
// stringified, and every other pair falls back to SetNull.
func InferTransform(from, to schema.FieldType) ValueTransform {
	switch to.(type) {
	case schema.Float:
		if _, ok := from.(schema.Integer); ok {
			return TransformIntegerToFloat{}
		}
	case schema.Integer:
		if _, ok := from.(schema.Float); ok {
			return TransformFloatToInteger{}
		}
	case schema.Text:
		return TransformToString{}
	}
	// TODO(schemaforge): SetNull silently drops data for pairs like Text->Integer;
	// add parse-based transforms once the executor can run conversion passes.
	return TransformSetNull{}
}
