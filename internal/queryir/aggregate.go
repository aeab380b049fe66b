package queryir

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/schema"
)

// AggregateOp is one aggregate computed over the records matching an
// AggregateQuery. Sealed like Filter.
type AggregateOp interface {
	fmt.Stringer
	json.Marshaler

	aggregateOp()
}

// Count counts matching records.
type Count struct{}

// Sum adds up the numeric values at Path.
type Sum struct {
	Path FieldPath
}

// Avg averages the numeric values at Path.
type Avg struct {
	Path FieldPath
}

func (Count) aggregateOp() {}
func (Sum) aggregateOp()   {}
func (Avg) aggregateOp()   {}

func (Count) String() string { return "count()" }
func (a Sum) String() string { return "sum(" + a.Path.Dotted() + ")" }
func (a Avg) String() string { return "avg(" + a.Path.Dotted() + ")" }

func (Count) MarshalJSON() ([]byte, error) { return []byte(`{"op":"Count"}`), nil }

func (a Sum) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string    `json:"op"`
		Field FieldPath `json:"field"`
	}{"Sum", a.Path})
}

func (a Avg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string    `json:"op"`
		Field FieldPath `json:"field"`
	}{"Avg", a.Path})
}

// UnmarshalAggregateOp decodes the tagged JSON form of an aggregate op.
func UnmarshalAggregateOp(data []byte) (AggregateOp, error) {
	var env struct {
		Op    string          `json:"op"`
		Field json.RawMessage `json:"field"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}

	switch env.Op {
	case "Count":
		return Count{}, nil
	case "Sum", "Avg":
		var path FieldPath
		if err := json.Unmarshal(env.Field, &path); err != nil {
			return nil, fmt.Errorf("decode %s aggregate field: %w", env.Op, err)
		}
		if env.Op == "Sum" {
			return Sum{Path: path}, nil
		}
		return Avg{Path: path}, nil
	case "":
		return nil, fmt.Errorf("decode aggregate: missing op tag")
	default:
		return nil, fmt.Errorf("decode aggregate: unknown op %q", env.Op)
	}
}

// AggregateQuery computes aggregates over the records of one schema,
// optionally narrowed by a filter. Results are keyed by op position.
type AggregateQuery struct {
	Schema schema.SchemaID `json:"schema"`
	Filter Filter          `json:"filter,omitempty"`
	Ops    []AggregateOp   `json:"ops"`
}

// NewAggregateQuery returns an aggregate query with no ops over the schema
// with the given ID.
func NewAggregateQuery(id schema.SchemaID) AggregateQuery {
	return AggregateQuery{Schema: id}
}

// WithOp appends an aggregate.
func (q AggregateQuery) WithOp(op AggregateOp) AggregateQuery {
	ops := make([]AggregateOp, 0, len(q.Ops)+1)
	ops = append(ops, q.Ops...)
	q.Ops = append(ops, op)
	return q
}

// WithFilter replaces the filter.
func (q AggregateQuery) WithFilter(f Filter) AggregateQuery {
	q.Filter = f
	return q
}

// Validate checks structural constraints: a schema and at least one op.
func (q AggregateQuery) Validate() error {
	if q.Schema.IsZero() {
		return fmt.Errorf("aggregate query has no schema")
	}
	if len(q.Ops) == 0 {
		return fmt.Errorf("aggregate query has no aggregates")
	}
	for i, op := range q.Ops {
		if op == nil {
			return fmt.Errorf("aggregate %d is nil", i)
		}
	}
	return nil
}

// ValidateAggregate checks the filter and every Sum/Avg field against def.
// Aggregated fields must exist; simple paths must be Integer or Float.
func ValidateAggregate(q AggregateQuery, def *schema.Definition) []*QueryError {
	v := filterValidator{def: def}
	if q.Filter != nil {
		v.walk(q.Filter)
	}
	for _, op := range q.Ops {
		var path FieldPath
		switch op := op.(type) {
		case Sum:
			path = op.Path
		case Avg:
			path = op.Path
		default:
			continue
		}
		field, ok := v.lookup(path)
		if !ok || !path.IsSimple() {
			continue
		}
		switch field.Type.(type) {
		case schema.Integer, schema.Float:
		default:
			v.errs = append(v.errs, &QueryError{
				Code:     ErrCodeTypeMismatch,
				Field:    path.Root(),
				Expected: "Integer or Float",
				Actual:   field.Type.Kind(),
			})
		}
	}
	return v.errs
}

// String renders the query in a SurrealQL-like form, e.g.
// SELECT count(), sum(value) FROM schema_... WHERE active = true
func (q AggregateQuery) String() string {
	parts := make([]string, len(q.Ops))
	for i, op := range q.Ops {
		parts[i] = op.String()
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.Schema.String())
	if q.Filter != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.Filter.String())
	}
	return b.String()
}

// MarshalJSON always emits ops as an array.
func (q AggregateQuery) MarshalJSON() ([]byte, error) {
	ops := q.Ops
	if ops == nil {
		ops = []AggregateOp{}
	}
	return json.Marshal(struct {
		Schema schema.SchemaID `json:"schema"`
		Filter Filter          `json:"filter,omitempty"`
		Ops    []AggregateOp   `json:"ops"`
	}{q.Schema, q.Filter, ops})
}

// UnmarshalJSON decodes an aggregate query, dispatching filter and ops on
// their op tags.
func (q *AggregateQuery) UnmarshalJSON(data []byte) error {
	var raw struct {
		Schema schema.SchemaID   `json:"schema"`
		Filter json.RawMessage   `json:"filter"`
		Ops    []json.RawMessage `json:"ops"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := AggregateQuery{Schema: raw.Schema, Ops: make([]AggregateOp, 0, len(raw.Ops))}
	if len(raw.Filter) > 0 && string(raw.Filter) != "null" {
		f, err := UnmarshalFilter(raw.Filter)
		if err != nil {
			return err
		}
		decoded.Filter = f
	}
	for i, r := range raw.Ops {
		op, err := UnmarshalAggregateOp(r)
		if err != nil {
			return fmt.Errorf("ops[%d]: %w", i, err)
		}
		decoded.Ops = append(decoded.Ops, op)
	}
	*q = decoded
	return nil
}
