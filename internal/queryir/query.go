package queryir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/schemaforge/internal/schema"
)

// SortOrder is the direction of a sort clause.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// String returns the query-language keyword, ASC or DESC.
func (o SortOrder) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

func (o SortOrder) MarshalJSON() ([]byte, error) {
	if o == Descending {
		return []byte(`"Descending"`), nil
	}
	return []byte(`"Ascending"`), nil
}

func (o *SortOrder) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Ascending":
		*o = Ascending
	case "Descending":
		*o = Descending
	default:
		return fmt.Errorf("unknown sort order %q", s)
	}
	return nil
}

// SortClause orders results by the value at Path.
type SortClause struct {
	Path  FieldPath `json:"path"`
	Order SortOrder `json:"order"`
}

func (c SortClause) String() string { return c.Path.Dotted() + " " + c.Order.String() }

// Query selects records of one schema.
//
// Query values are built with value receivers, so each builder returns a
// modified copy and the receiver is left untouched:
//
//	q := NewQuery(id).
//		WithFilter(Eq(MustPath("status"), ir.Enum("active"))).
//		WithSort(MustPath("name"), Ascending).
//		WithLimit(10)
type Query struct {
	Schema schema.SchemaID `json:"schema"`
	Filter Filter          `json:"filter,omitempty"`
	Sort   []SortClause    `json:"sort,omitempty"`
	Limit  *uint           `json:"limit,omitempty"`
	Offset *uint           `json:"offset,omitempty"`
}

// NewQuery returns an unfiltered query over the schema with the given ID.
func NewQuery(id schema.SchemaID) Query {
	return Query{Schema: id}
}

// WithFilter replaces the filter.
func (q Query) WithFilter(f Filter) Query {
	q.Filter = f
	return q
}

// WithSort appends a sort clause.
func (q Query) WithSort(path FieldPath, order SortOrder) Query {
	sorts := make([]SortClause, 0, len(q.Sort)+1)
	sorts = append(sorts, q.Sort...)
	q.Sort = append(sorts, SortClause{Path: path, Order: order})
	return q
}

// WithLimit caps the number of results.
func (q Query) WithLimit(n uint) Query {
	q.Limit = &n
	return q
}

// WithOffset skips the first n results.
func (q Query) WithOffset(n uint) Query {
	q.Offset = &n
	return q
}

// Validate checks structural constraints. A limit of zero is rejected.
// Field-level checks against a schema live in ValidateFilter.
func (q Query) Validate() error {
	if q.Schema.IsZero() {
		return fmt.Errorf("query has no schema")
	}
	if q.Limit != nil && *q.Limit == 0 {
		return &QueryError{Code: ErrCodeInvalidLimit, Limit: 0}
	}
	return nil
}

// String renders the query in a SurrealQL-like form, e.g.
// SELECT * FROM sch_... WHERE age > 25 ORDER BY name ASC LIMIT 10 START 5
func (q Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.Schema.String())
	if q.Filter != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.Filter.String())
	}
	if len(q.Sort) > 0 {
		parts := make([]string, len(q.Sort))
		for i, s := range q.Sort {
			parts[i] = s.String()
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatUint(uint64(*q.Limit), 10))
	}
	if q.Offset != nil {
		b.WriteString(" START ")
		b.WriteString(strconv.FormatUint(uint64(*q.Offset), 10))
	}
	return b.String()
}

// UnmarshalJSON decodes a query, dispatching the filter on its op tag.
func (q *Query) UnmarshalJSON(data []byte) error {
	var raw struct {
		Schema schema.SchemaID `json:"schema"`
		Filter json.RawMessage `json:"filter"`
		Sort   []SortClause    `json:"sort"`
		Limit  *uint           `json:"limit"`
		Offset *uint           `json:"offset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := Query{Schema: raw.Schema, Sort: raw.Sort, Limit: raw.Limit, Offset: raw.Offset}
	if len(raw.Filter) > 0 && string(raw.Filter) != "null" {
		f, err := UnmarshalFilter(raw.Filter)
		if err != nil {
			return err
		}
		decoded.Filter = f
	}
	*q = decoded
	return nil
}
