package queryir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/schemaforge/internal/ir"
)

// Filter is a boolean condition over a schema's records.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// Filter types:
//   - Equals, NotEquals, GreaterThan, GreaterOrEqual, LessThan, LessOrEqual:
//     path <op> value
//   - Substring: text at path contains a string
//   - Prefix: text at path starts with a string
//   - Membership: value at path is one of a set
//   - AllOf, AnyOf: conjunction and disjunction of child filters
//   - Negation: logical NOT of a child filter
type Filter interface {
	fmt.Stringer
	json.Marshaler

	filterNode() // Marker method - seals interface to this package
}

// Equals matches records whose value at Path equals Value.
type Equals struct {
	Path  FieldPath
	Value ir.Value
}

// NotEquals matches records whose value at Path differs from Value.
type NotEquals struct {
	Path  FieldPath
	Value ir.Value
}

// GreaterThan matches records whose value at Path is > Value.
type GreaterThan struct {
	Path  FieldPath
	Value ir.Value
}

// GreaterOrEqual matches records whose value at Path is >= Value.
type GreaterOrEqual struct {
	Path  FieldPath
	Value ir.Value
}

// LessThan matches records whose value at Path is < Value.
type LessThan struct {
	Path  FieldPath
	Value ir.Value
}

// LessOrEqual matches records whose value at Path is <= Value.
type LessOrEqual struct {
	Path  FieldPath
	Value ir.Value
}

// Substring matches records whose text at Path contains Value.
type Substring struct {
	Path  FieldPath
	Value string
}

// Prefix matches records whose text at Path starts with Value.
type Prefix struct {
	Path  FieldPath
	Value string
}

// Membership matches records whose value at Path is one of Values.
// An empty set matches nothing; ValidateFilter reports it.
type Membership struct {
	Path   FieldPath
	Values []ir.Value
}

// AllOf matches when every child matches. An empty AllOf matches everything.
type AllOf struct {
	Filters []Filter
}

// AnyOf matches when at least one child matches. An empty AnyOf matches nothing.
type AnyOf struct {
	Filters []Filter
}

// Negation matches when its child does not.
type Negation struct {
	Filter Filter
}

func (Equals) filterNode()         {}
func (NotEquals) filterNode()      {}
func (GreaterThan) filterNode()    {}
func (GreaterOrEqual) filterNode() {}
func (LessThan) filterNode()       {}
func (LessOrEqual) filterNode()    {}
func (Substring) filterNode()      {}
func (Prefix) filterNode()         {}
func (Membership) filterNode()     {}
func (AllOf) filterNode()          {}
func (AnyOf) filterNode()          {}
func (Negation) filterNode()       {}

// Eq builds path = value.
func Eq(path FieldPath, value ir.Value) Filter { return Equals{Path: path, Value: orNull(value)} }

// Ne builds path != value.
func Ne(path FieldPath, value ir.Value) Filter { return NotEquals{Path: path, Value: orNull(value)} }

// Gt builds path > value.
func Gt(path FieldPath, value ir.Value) Filter { return GreaterThan{Path: path, Value: orNull(value)} }

// Gte builds path >= value.
func Gte(path FieldPath, value ir.Value) Filter { return GreaterOrEqual{Path: path, Value: orNull(value)} }

// Lt builds path < value.
func Lt(path FieldPath, value ir.Value) Filter { return LessThan{Path: path, Value: orNull(value)} }

// Lte builds path <= value.
func Lte(path FieldPath, value ir.Value) Filter { return LessOrEqual{Path: path, Value: orNull(value)} }

// Contains builds a substring match.
func Contains(path FieldPath, s string) Filter { return Substring{Path: path, Value: s} }

// StartsWith builds a prefix match.
func StartsWith(path FieldPath, s string) Filter { return Prefix{Path: path, Value: s} }

// InSet builds a set-membership match.
func InSet(path FieldPath, values ...ir.Value) Filter {
	normalized := make([]ir.Value, len(values))
	for i, v := range values {
		normalized[i] = orNull(v)
	}
	return Membership{Path: path, Values: normalized}
}

// orNull maps a nil value to ir.Null so filters never hold nil.
func orNull(v ir.Value) ir.Value {
	if v == nil {
		return ir.Null{}
	}
	return v
}

// And builds a conjunction.
func And(filters ...Filter) Filter { return AllOf{Filters: filters} }

// Or builds a disjunction.
func Or(filters ...Filter) Filter { return AnyOf{Filters: filters} }

// Negate builds a logical NOT.
func Negate(f Filter) Filter { return Negation{Filter: f} }

func (f Equals) String() string         { return comparison(f.Path, "=", f.Value) }
func (f NotEquals) String() string      { return comparison(f.Path, "!=", f.Value) }
func (f GreaterThan) String() string    { return comparison(f.Path, ">", f.Value) }
func (f GreaterOrEqual) String() string { return comparison(f.Path, ">=", f.Value) }
func (f LessThan) String() string       { return comparison(f.Path, "<", f.Value) }
func (f LessOrEqual) String() string    { return comparison(f.Path, "<=", f.Value) }

func (f Substring) String() string {
	return f.Path.Dotted() + " CONTAINS " + strconv.Quote(f.Value)
}

func (f Prefix) String() string {
	return f.Path.Dotted() + " STARTS WITH " + strconv.Quote(f.Value)
}

func (f Membership) String() string {
	parts := make([]string, len(f.Values))
	for i, v := range f.Values {
		parts[i] = orNull(v).String()
	}
	return f.Path.Dotted() + " IN [" + strings.Join(parts, ", ") + "]"
}

func (f AllOf) String() string    { return joinFilters(f.Filters, " AND ") }
func (f AnyOf) String() string    { return joinFilters(f.Filters, " OR ") }
func (f Negation) String() string { return "NOT (" + f.Filter.String() + ")" }

func comparison(p FieldPath, op string, v ir.Value) string {
	return p.Dotted() + " " + op + " " + orNull(v).String()
}

func joinFilters(filters []Filter, sep string) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

type comparisonJSON struct {
	Op    string    `json:"op"`
	Path  FieldPath `json:"path"`
	Value ir.Value  `json:"value"`
}

type textJSON struct {
	Op    string    `json:"op"`
	Path  FieldPath `json:"path"`
	Value string    `json:"value"`
}

func (f Equals) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{"Eq", f.Path, orNull(f.Value)})
}
func (f NotEquals) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{"Ne", f.Path, orNull(f.Value)})
}
func (f GreaterThan) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{"Gt", f.Path, orNull(f.Value)})
}
func (f GreaterOrEqual) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{"Gte", f.Path, orNull(f.Value)})
}
func (f LessThan) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{"Lt", f.Path, orNull(f.Value)})
}
func (f LessOrEqual) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{"Lte", f.Path, orNull(f.Value)})
}
func (f Substring) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{"Contains", f.Path, f.Value})
}
func (f Prefix) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{"StartsWith", f.Path, f.Value})
}

func (f Membership) MarshalJSON() ([]byte, error) {
	values := make([]ir.Value, len(f.Values))
	for i, v := range f.Values {
		values[i] = orNull(v)
	}
	return json.Marshal(struct {
		Op     string     `json:"op"`
		Path   FieldPath  `json:"path"`
		Values []ir.Value `json:"values"`
	}{"In", f.Path, values})
}

func (f AllOf) MarshalJSON() ([]byte, error) { return marshalGroup("And", f.Filters) }
func (f AnyOf) MarshalJSON() ([]byte, error) { return marshalGroup("Or", f.Filters) }

func (f Negation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string `json:"op"`
		Filter Filter `json:"filter"`
	}{"Not", f.Filter})
}

func marshalGroup(op string, filters []Filter) ([]byte, error) {
	if filters == nil {
		filters = []Filter{}
	}
	return json.Marshal(struct {
		Op      string   `json:"op"`
		Filters []Filter `json:"filters"`
	}{op, filters})
}

// UnmarshalFilter decodes the tagged JSON form of a filter.
func UnmarshalFilter(data []byte) (Filter, error) {
	var env struct {
		Op      string            `json:"op"`
		Path    json.RawMessage   `json:"path"`
		Value   json.RawMessage   `json:"value"`
		Values  []json.RawMessage `json:"values"`
		Filters []json.RawMessage `json:"filters"`
		Filter  json.RawMessage   `json:"filter"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}

	var path FieldPath
	switch env.Op {
	case "Eq", "Ne", "Gt", "Gte", "Lt", "Lte", "Contains", "StartsWith", "In":
		if err := json.Unmarshal(env.Path, &path); err != nil {
			return nil, fmt.Errorf("decode %s filter path: %w", env.Op, err)
		}
	}

	switch env.Op {
	case "Eq", "Ne", "Gt", "Gte", "Lt", "Lte":
		v, err := ir.UnmarshalValue(env.Value)
		if err != nil {
			return nil, fmt.Errorf("decode %s filter value: %w", env.Op, err)
		}
		switch env.Op {
		case "Eq":
			return Equals{Path: path, Value: v}, nil
		case "Ne":
			return NotEquals{Path: path, Value: v}, nil
		case "Gt":
			return GreaterThan{Path: path, Value: v}, nil
		case "Gte":
			return GreaterOrEqual{Path: path, Value: v}, nil
		case "Lt":
			return LessThan{Path: path, Value: v}, nil
		default:
			return LessOrEqual{Path: path, Value: v}, nil
		}
	case "Contains", "StartsWith":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("decode %s filter value: %w", env.Op, err)
		}
		if env.Op == "Contains" {
			return Substring{Path: path, Value: s}, nil
		}
		return Prefix{Path: path, Value: s}, nil
	case "In":
		values := make([]ir.Value, 0, len(env.Values))
		for i, raw := range env.Values {
			v, err := ir.UnmarshalValue(raw)
			if err != nil {
				return nil, fmt.Errorf("decode In filter values[%d]: %w", i, err)
			}
			values = append(values, v)
		}
		return Membership{Path: path, Values: values}, nil
	case "And", "Or":
		children := make([]Filter, 0, len(env.Filters))
		for i, raw := range env.Filters {
			child, err := UnmarshalFilter(raw)
			if err != nil {
				return nil, fmt.Errorf("decode %s filters[%d]: %w", env.Op, i, err)
			}
			children = append(children, child)
		}
		if env.Op == "And" {
			return AllOf{Filters: children}, nil
		}
		return AnyOf{Filters: children}, nil
	case "Not":
		child, err := UnmarshalFilter(env.Filter)
		if err != nil {
			return nil, fmt.Errorf("decode Not filter: %w", err)
		}
		return Negation{Filter: child}, nil
	case "":
		return nil, fmt.Errorf("decode filter: missing op tag")
	default:
		return nil, fmt.Errorf("decode filter: unknown op %q", env.Op)
	}
}
