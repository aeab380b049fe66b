package surql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/queryir"
	"github.com/roach88/schemaforge/internal/schema"
)

func TestQueryStatement(t *testing.T) {
	id := schema.NewSchemaID()
	p := queryir.MustPath

	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{
			name:  "select all",
			query: queryir.NewQuery(id),
			want:  "SELECT * FROM Contact;",
		},
		{
			name:  "eq",
			query: queryir.NewQuery(id).WithFilter(queryir.Eq(p("name"), ir.Text("Jane"))),
			want:  "SELECT * FROM Contact WHERE name = 'Jane';",
		},
		{
			name:  "gt",
			query: queryir.NewQuery(id).WithFilter(queryir.Gt(p("age"), ir.Integer(25))),
			want:  "SELECT * FROM Contact WHERE age > 25;",
		},
		{
			name: "and",
			query: queryir.NewQuery(id).WithFilter(queryir.And(
				queryir.Eq(p("name"), ir.Text("Jane")),
				queryir.Gt(p("age"), ir.Integer(25)),
			)),
			want: "SELECT * FROM Contact WHERE (name = 'Jane' AND age > 25);",
		},
		{
			name: "or of enums",
			query: queryir.NewQuery(id).WithFilter(queryir.Or(
				queryir.Eq(p("status"), ir.Enum("Active")),
				queryir.Eq(p("status"), ir.Enum("Pending")),
			)),
			want: "SELECT * FROM Contact WHERE (status = 'Active' OR status = 'Pending');",
		},
		{
			name:  "not",
			query: queryir.NewQuery(id).WithFilter(queryir.Negate(queryir.Eq(p("active"), ir.Boolean(false)))),
			want:  "SELECT * FROM Contact WHERE !(active = false);",
		},
		{
			name:  "contains escapes quotes",
			query: queryir.NewQuery(id).WithFilter(queryir.Contains(p("name"), "O'Brien")),
			want:  `SELECT * FROM Contact WHERE name CONTAINS 'O\'Brien';`,
		},
		{
			name:  "starts with",
			query: queryir.NewQuery(id).WithFilter(queryir.StartsWith(p("email"), "admin")),
			want:  "SELECT * FROM Contact WHERE string::startsWith(email, 'admin');",
		},
		{
			name:  "in",
			query: queryir.NewQuery(id).WithFilter(queryir.InSet(p("age"), ir.Integer(1), ir.Integer(2))),
			want:  "SELECT * FROM Contact WHERE age IN [1, 2];",
		},
		{
			name:  "nested path",
			query: queryir.NewQuery(id).WithFilter(queryir.Eq(p("company.industry"), ir.Text("Tech"))),
			want:  "SELECT * FROM Contact WHERE company.industry = 'Tech';",
		},
		{
			name:  "null is none",
			query: queryir.NewQuery(id).WithFilter(queryir.Ne(p("email"), ir.Null{})),
			want:  "SELECT * FROM Contact WHERE email != NONE;",
		},
		{
			name: "sort limit offset",
			query: queryir.NewQuery(id).
				WithSort(p("name"), queryir.Ascending).
				WithSort(p("age"), queryir.Descending).
				WithLimit(10).
				WithOffset(20),
			want: "SELECT * FROM Contact ORDER BY name ASC, age DESC LIMIT 10 START 20;",
		},
		{
			name:  "empty and is true",
			query: queryir.NewQuery(id).WithFilter(queryir.And()),
			want:  "SELECT * FROM Contact WHERE true;",
		},
		{
			name:  "empty or is false",
			query: queryir.NewQuery(id).WithFilter(queryir.Or()),
			want:  "SELECT * FROM Contact WHERE false;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QueryStatement(tt.query, "Contact"))
		})
	}
}

func TestCountStatement(t *testing.T) {
	id := schema.NewSchemaID()
	assert.Equal(t, "SELECT count() FROM Contact GROUP ALL;", CountStatement(queryir.NewQuery(id), "Contact"))

	q := queryir.NewQuery(id).
		WithFilter(queryir.Gte(queryir.MustPath("age"), ir.Integer(18))).
		WithSort(queryir.MustPath("age"), queryir.Ascending).
		WithLimit(5)
	assert.Equal(t, "SELECT count() FROM Contact WHERE age >= 18 GROUP ALL;", CountStatement(q, "Contact"))
}

func TestAggregateStatement(t *testing.T) {
	id := schema.NewSchemaID()
	p := queryir.MustPath

	tests := []struct {
		name  string
		query queryir.AggregateQuery
		table string
		want  string
	}{
		{
			name:  "count only",
			query: queryir.NewAggregateQuery(id).WithOp(queryir.Count{}),
			table: "Deal",
			want:  "SELECT count() AS agg_0 FROM Deal GROUP ALL;",
		},
		{
			name: "count sum avg",
			query: queryir.NewAggregateQuery(id).
				WithOp(queryir.Count{}).
				WithOp(queryir.Sum{Path: p("value")}).
				WithOp(queryir.Avg{Path: p("value")}),
			table: "Deal",
			want:  "SELECT count() AS agg_0, math::sum(value) AS agg_1, math::mean(value) AS agg_2 FROM Deal GROUP ALL;",
		},
		{
			name: "with filter",
			query: queryir.NewAggregateQuery(id).
				WithOp(queryir.Count{}).
				WithFilter(queryir.Eq(p("active"), ir.Boolean(true))),
			table: "Deal",
			want:  "SELECT count() AS agg_0 FROM Deal WHERE active = true GROUP ALL;",
		},
		{
			name:  "nested sum path",
			query: queryir.NewAggregateQuery(id).WithOp(queryir.Sum{Path: p("line_items.amount")}),
			table: "Invoice",
			want:  "SELECT math::sum(line_items.amount) AS agg_0 FROM Invoice GROUP ALL;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatement(tt.query, tt.table))
		})
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Value
		want string
	}{
		{"null", ir.Null{}, "NONE"},
		{"text", ir.Text(`a\b`), `'a\\b'`},
		{"integer", ir.Integer(-3), "-3"},
		{"float", ir.Float(2), "2.0"},
		{"float fraction", ir.Float(0.25), "0.25"},
		{"boolean", ir.Boolean(true), "true"},
		{"datetime", ir.NewDateTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), "d'2024-03-01T12:00:00Z'"},
		{"enum", ir.Enum("Lead"), "'Lead'"},
		{"json", ir.JSON(`{"a":1}`), `{"a":1}`},
		{"array", ir.Array{ir.Integer(1), ir.Text("x")}, "[1, 'x']"},
		{"composite", ir.Composite{"b": ir.Integer(2), "a": ir.Integer(1)}, "{ a: 1, b: 2 }"},
		{"empty composite", ir.Composite{}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestLiteralRefs(t *testing.T) {
	id := ir.NewEntityID()
	assert.Equal(t, "'"+id.String()+"'", Literal(ir.Ref(id)))
	assert.Equal(t, "['"+id.String()+"']", Literal(ir.RefArray{id}))
}
