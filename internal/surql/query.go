package surql

import (
	"strconv"
	"strings"

	"github.com/roach88/schemaforge/internal/queryir"
)

// QueryStatement renders a SELECT against table. The query's schema ID is
// not consulted; callers resolve it to a table name.
func QueryStatement(q queryir.Query, table string) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(table)
	writeWhere(&b, q.Filter)

	if len(q.Sort) > 0 {
		clauses := make([]string, len(q.Sort))
		for i, s := range q.Sort {
			clauses[i] = s.Path.Dotted() + " " + s.Order.String()
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(clauses, ", "))
	}
	if q.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatUint(uint64(*q.Limit), 10))
	}
	if q.Offset != nil {
		b.WriteString(" START ")
		b.WriteString(strconv.FormatUint(uint64(*q.Offset), 10))
	}
	b.WriteByte(';')
	return b.String()
}

// CountStatement renders the number of records matching the query's
// filter. Sort, limit and offset are ignored.
func CountStatement(q queryir.Query, table string) string {
	var b strings.Builder
	b.WriteString("SELECT count() FROM ")
	b.WriteString(table)
	writeWhere(&b, q.Filter)
	b.WriteString(" GROUP ALL;")
	return b.String()
}

// AggregateStatement renders one GROUP ALL projection per op, aliased
// agg_0, agg_1, ... by position.
func AggregateStatement(q queryir.AggregateQuery, table string) string {
	projections := make([]string, len(q.Ops))
	for i, op := range q.Ops {
		alias := " AS agg_" + strconv.Itoa(i)
		switch op := op.(type) {
		case queryir.Count:
			projections[i] = "count()" + alias
		case queryir.Sum:
			projections[i] = "math::sum(" + op.Path.Dotted() + ")" + alias
		case queryir.Avg:
			projections[i] = "math::mean(" + op.Path.Dotted() + ")" + alias
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(projections, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)
	writeWhere(&b, q.Filter)
	b.WriteString(" GROUP ALL;")
	return b.String()
}

func writeWhere(b *strings.Builder, f queryir.Filter) {
	if f == nil {
		return
	}
	b.WriteString(" WHERE ")
	b.WriteString(FilterExpr(f))
}

// FilterExpr renders a filter as a WHERE expression (without the keyword).
// Nested paths are emitted dotted; SurrealDB follows record links natively.
// An empty AND is true and an empty OR is false.
func FilterExpr(f queryir.Filter) string {
	switch f := f.(type) {
	case queryir.Equals:
		return f.Path.Dotted() + " = " + Literal(f.Value)
	case queryir.NotEquals:
		return f.Path.Dotted() + " != " + Literal(f.Value)
	case queryir.GreaterThan:
		return f.Path.Dotted() + " > " + Literal(f.Value)
	case queryir.GreaterOrEqual:
		return f.Path.Dotted() + " >= " + Literal(f.Value)
	case queryir.LessThan:
		return f.Path.Dotted() + " < " + Literal(f.Value)
	case queryir.LessOrEqual:
		return f.Path.Dotted() + " <= " + Literal(f.Value)
	case queryir.Substring:
		return f.Path.Dotted() + " CONTAINS " + quote(f.Value)
	case queryir.Prefix:
		return "string::startsWith(" + f.Path.Dotted() + ", " + quote(f.Value) + ")"
	case queryir.Membership:
		items := make([]string, len(f.Values))
		for i, v := range f.Values {
			items[i] = Literal(v)
		}
		return f.Path.Dotted() + " IN [" + strings.Join(items, ", ") + "]"
	case queryir.AllOf:
		if len(f.Filters) == 0 {
			return "true"
		}
		return joinExprs(f.Filters, " AND ")
	case queryir.AnyOf:
		if len(f.Filters) == 0 {
			return "false"
		}
		return joinExprs(f.Filters, " OR ")
	case queryir.Negation:
		return "!(" + FilterExpr(f.Filter) + ")"
	default:
		return "true"
	}
}

func joinExprs(filters []queryir.Filter, sep string) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = FilterExpr(f)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
