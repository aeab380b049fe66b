package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface for runtime values held by entity fields and
// used in filters, defaults and backfills.
type Value interface {
	fmt.Stringer
	json.Marshaler

	// Kind returns the variant name ("Text", "Integer", ...).
	Kind() string

	irValue() // Sealed
}

// Null is the absence of a value.
type Null struct{}

// Text is a string value.
type Text string

// Integer is a signed 64-bit integer value.
type Integer int64

// Float is a 64-bit floating point value.
type Float float64

// Boolean is a boolean value.
type Boolean bool

// DateTime is a UTC timestamp.
type DateTime time.Time

// Enum is a single enum variant.
type Enum string

// JSON is an arbitrary JSON document.
type JSON json.RawMessage

// Array is an ordered list of values.
type Array []Value

// Composite is a map of sub-field names to values.
type Composite map[string]Value

// Ref is a reference to another entity.
type Ref EntityID

// RefArray is a list of references to other entities.
type RefArray []EntityID

func (Null) irValue()      {}
func (Text) irValue()      {}
func (Integer) irValue()   {}
func (Float) irValue()     {}
func (Boolean) irValue()   {}
func (DateTime) irValue()  {}
func (Enum) irValue()      {}
func (JSON) irValue()      {}
func (Array) irValue()     {}
func (Composite) irValue() {}
func (Ref) irValue()       {}
func (RefArray) irValue()  {}

func (Null) Kind() string      { return "Null" }
func (Text) Kind() string      { return "Text" }
func (Integer) Kind() string   { return "Integer" }
func (Float) Kind() string     { return "Float" }
func (Boolean) Kind() string   { return "Boolean" }
func (DateTime) Kind() string  { return "DateTime" }
func (Enum) Kind() string      { return "Enum" }
func (JSON) Kind() string      { return "Json" }
func (Array) Kind() string     { return "Array" }
func (Composite) Kind() string { return "Composite" }
func (Ref) Kind() string       { return "Ref" }
func (RefArray) Kind() string  { return "RefArray" }

// NewDateTime truncates t to UTC so equal instants compare equal.
func NewDateTime(t time.Time) DateTime {
	return DateTime(t.UTC())
}

// Time returns the underlying timestamp.
func (v DateTime) Time() time.Time {
	return time.Time(v)
}

func (Null) String() string      { return "null" }
func (v Text) String() string    { return strconv.Quote(string(v)) }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return FormatFloat(float64(v)) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v DateTime) String() string {
	return time.Time(v).UTC().Format(time.RFC3339Nano)
}
func (v Enum) String() string { return string(v) }
func (v JSON) String() string {
	if len(v) == 0 {
		return "null"
	}
	return string(v)
}
func (v Ref) String() string { return "ref(" + EntityID(v).String() + ")" }

func (v Array) String() string {
	parts := make([]string, len(v))
	for i, elem := range v {
		parts[i] = elem.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v Composite) String() string {
	keys := v.SortedKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + v[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (v RefArray) String() string {
	parts := make([]string, len(v))
	for i, id := range v {
		parts[i] = id.String()
	}
	return "refs[" + strings.Join(parts, ", ") + "]"
}

// FormatFloat renders a float in its shortest round-trip form, always with a
// decimal point or exponent so it never reads back as an integer.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs outside the BMP.
func (v Composite) SortedKeys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

type taggedValue struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

func tagged(kind string, value any) ([]byte, error) {
	return json.Marshal(taggedValue{Type: kind, Value: value})
}

// MarshalJSON implementations. Every variant encodes as {"type", "value"}.

func (Null) MarshalJSON() ([]byte, error)      { return []byte(`{"type":"Null"}`), nil }
func (v Text) MarshalJSON() ([]byte, error)    { return tagged("Text", string(v)) }
func (v Integer) MarshalJSON() ([]byte, error) { return tagged("Integer", int64(v)) }
func (v Boolean) MarshalJSON() ([]byte, error) { return tagged("Boolean", bool(v)) }
func (v Enum) MarshalJSON() ([]byte, error)    { return tagged("Enum", string(v)) }
func (v Ref) MarshalJSON() ([]byte, error)     { return tagged("Ref", EntityID(v)) }

func (v Float) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("float value %v has no JSON representation", f)
	}
	return tagged("Float", json.RawMessage(FormatFloat(f)))
}

func (v DateTime) MarshalJSON() ([]byte, error) {
	return tagged("DateTime", time.Time(v).UTC().Format(time.RFC3339Nano))
}

func (v JSON) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return tagged("Json", json.RawMessage("null"))
	}
	return tagged("Json", json.RawMessage(v))
}

func (v Array) MarshalJSON() ([]byte, error) {
	elems := []Value(v)
	if elems == nil {
		elems = []Value{}
	}
	return tagged("Array", elems)
}

func (v Composite) MarshalJSON() ([]byte, error) {
	fields := map[string]Value(v)
	if fields == nil {
		fields = map[string]Value{}
	}
	return tagged("Composite", fields)
}

func (v RefArray) MarshalJSON() ([]byte, error) {
	ids := []EntityID(v)
	if ids == nil {
		ids = []EntityID{}
	}
	return tagged("RefArray", ids)
}

// UnmarshalValue decodes the tagged JSON form produced by Value.MarshalJSON.
func UnmarshalValue(data []byte) (Value, error) {
	var env struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	switch env.Type {
	case "Null":
		return Null{}, nil
	case "Text":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode Text: %w", err)
		}
		return Text(s), nil
	case "Integer":
		var n int64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return nil, fmt.Errorf("decode Integer: %w", err)
		}
		return Integer(n), nil
	case "Float":
		var f float64
		if err := json.Unmarshal(env.Value, &f); err != nil {
			return nil, fmt.Errorf("decode Float: %w", err)
		}
		return Float(f), nil
	case "Boolean":
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode Boolean: %w", err)
		}
		return Boolean(b), nil
	case "DateTime":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode DateTime: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("decode DateTime: %w", err)
		}
		return NewDateTime(t), nil
	case "Enum":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode Enum: %w", err)
		}
		return Enum(s), nil
	case "Json":
		if len(env.Value) == 0 {
			return JSON("null"), nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, env.Value); err != nil {
			return nil, fmt.Errorf("decode Json: %w", err)
		}
		return JSON(buf.Bytes()), nil
	case "Array":
		var raws []json.RawMessage
		if err := json.Unmarshal(env.Value, &raws); err != nil {
			return nil, fmt.Errorf("decode Array: %w", err)
		}
		arr := make(Array, len(raws))
		for i, raw := range raws {
			elem, err := UnmarshalValue(raw)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = elem
		}
		return arr, nil
	case "Composite":
		var raws map[string]json.RawMessage
		if err := json.Unmarshal(env.Value, &raws); err != nil {
			return nil, fmt.Errorf("decode Composite: %w", err)
		}
		obj := make(Composite, len(raws))
		for k, raw := range raws {
			elem, err := UnmarshalValue(raw)
			if err != nil {
				return nil, fmt.Errorf("composite[%q]: %w", k, err)
			}
			obj[k] = elem
		}
		return obj, nil
	case "Ref":
		var id EntityID
		if err := json.Unmarshal(env.Value, &id); err != nil {
			return nil, fmt.Errorf("decode Ref: %w", err)
		}
		return Ref(id), nil
	case "RefArray":
		var ids []EntityID
		if err := json.Unmarshal(env.Value, &ids); err != nil {
			return nil, fmt.Errorf("decode RefArray: %w", err)
		}
		if ids == nil {
			ids = []EntityID{}
		}
		return RefArray(ids), nil
	case "":
		return nil, fmt.Errorf("decode value: missing type tag")
	default:
		return nil, fmt.Errorf("decode value: unknown type %q", env.Type)
	}
}

// FromNative converts a plain Go value, as produced by yaml.v3 or
// encoding/json, into a Value. Maps become Composite and slices become Array.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return Text(val), nil
	case bool:
		return Boolean(val), nil
	case int:
		return Integer(val), nil
	case int64:
		return Integer(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Integer(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return Float(f), nil
	case time.Time:
		return NewDateTime(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		obj := make(Composite, len(val))
		for k, elem := range val {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported native type: %T", v)
	}
}

// ToNative converts a scalar Value into a plain Go value suitable for a
// database/sql parameter. Structured values are rejected.
func ToNative(v Value) (any, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case Text:
		return string(val), nil
	case Integer:
		return int64(val), nil
	case Float:
		return float64(val), nil
	case Boolean:
		return bool(val), nil
	case DateTime:
		return val.String(), nil
	case Enum:
		return string(val), nil
	case Ref:
		return EntityID(val).String(), nil
	default:
		return nil, fmt.Errorf("%s values cannot be used as scalar parameters", v.Kind())
	}
}
