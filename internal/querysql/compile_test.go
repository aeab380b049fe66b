package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/queryir"
	"github.com/roach88/schemaforge/internal/schema"
)

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()
	id := schema.NewSchemaID()

	q := queryir.NewQuery(id).WithFilter(queryir.Eq(queryir.MustPath("category"), ir.Text("widgets")))

	sql, params, err := compiler.Compile(q)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, body FROM records WHERE schema_id = ? AND json_extract(body, ?) = ? ORDER BY id COLLATE BINARY ASC",
		sql)

	// Verify parameterized query (no interpolation)
	assert.NotContains(t, sql, "widgets")
	assert.Equal(t, []any{id.String(), "$.category", "widgets"}, params)
}

func TestCompile_NoFilter(t *testing.T) {
	id := schema.NewSchemaID()
	sql, params, err := NewSQLCompiler().Compile(queryir.NewQuery(id))
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, body FROM records WHERE schema_id = ? ORDER BY id COLLATE BINARY ASC", sql)
	assert.Equal(t, []any{id.String()}, params)
}

func TestCompile_CustomTable(t *testing.T) {
	c := &SQLCompiler{Table: "docs"}
	sql, _, err := c.Compile(queryir.NewQuery(schema.NewSchemaID()))
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM docs ")

	var zero SQLCompiler
	sql, _, err = zero.Compile(queryir.NewQuery(schema.NewSchemaID()))
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM records ")
}

func TestCompile_Filters(t *testing.T) {
	p := queryir.MustPath

	tests := []struct {
		name       string
		filter     queryir.Filter
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "ne",
			filter:     queryir.Ne(p("age"), ir.Integer(3)),
			wantSQL:    "json_extract(body, ?) != ?",
			wantParams: []any{"$.age", int64(3)},
		},
		{
			name:       "eq null",
			filter:     queryir.Eq(p("email"), ir.Null{}),
			wantSQL:    "json_extract(body, ?) IS NULL",
			wantParams: []any{"$.email"},
		},
		{
			name:       "ne null",
			filter:     queryir.Ne(p("email"), ir.Null{}),
			wantSQL:    "json_extract(body, ?) IS NOT NULL",
			wantParams: []any{"$.email"},
		},
		{
			name:       "range",
			filter:     queryir.And(queryir.Gte(p("score"), ir.Float(1.5)), queryir.Lt(p("score"), ir.Integer(10))),
			wantSQL:    "(json_extract(body, ?) >= ? AND json_extract(body, ?) < ?)",
			wantParams: []any{"$.score", 1.5, "$.score", int64(10)},
		},
		{
			name:       "gt and lte",
			filter:     queryir.Or(queryir.Gt(p("a"), ir.Integer(1)), queryir.Lte(p("b"), ir.Integer(2))),
			wantSQL:    "(json_extract(body, ?) > ? OR json_extract(body, ?) <= ?)",
			wantParams: []any{"$.a", int64(1), "$.b", int64(2)},
		},
		{
			name:       "contains",
			filter:     queryir.Contains(p("name"), "an"),
			wantSQL:    "instr(json_extract(body, ?), ?) > 0",
			wantParams: []any{"$.name", "an"},
		},
		{
			name:       "starts with",
			filter:     queryir.StartsWith(p("name"), "Ja"),
			wantSQL:    "substr(json_extract(body, ?), 1, length(?)) = ?",
			wantParams: []any{"$.name", "Ja", "Ja"},
		},
		{
			name:       "in",
			filter:     queryir.InSet(p("status"), ir.Enum("Lead"), ir.Enum("Customer")),
			wantSQL:    "json_extract(body, ?) IN (?, ?)",
			wantParams: []any{"$.status", "Lead", "Customer"},
		},
		{
			name:    "empty in",
			filter:  queryir.InSet(p("status")),
			wantSQL: "0 = 1",
		},
		{
			name:    "empty and",
			filter:  queryir.And(),
			wantSQL: "1 = 1",
		},
		{
			name:    "empty or",
			filter:  queryir.Or(),
			wantSQL: "0 = 1",
		},
		{
			name:       "not",
			filter:     queryir.Negate(queryir.Eq(p("active"), ir.Boolean(true))),
			wantSQL:    "NOT (json_extract(body, ?) = ?)",
			wantParams: []any{"$.active", true},
		},
		{
			name:       "nested path",
			filter:     queryir.Eq(p("company.industry"), ir.Text("Tech")),
			wantSQL:    "json_extract(body, ?) = ?",
			wantParams: []any{"$.company.industry", "Tech"},
		},
		{
			name:       "quoted segment",
			filter:     queryir.Eq(p("meta.first-name"), ir.Text("x")),
			wantSQL:    "json_extract(body, ?) = ?",
			wantParams: []any{`$.meta."first-name"`, "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := schema.NewSchemaID()
			sql, params, err := NewSQLCompiler().Compile(queryir.NewQuery(id).WithFilter(tt.filter))
			require.NoError(t, err)

			assert.Equal(t,
				"SELECT id, body FROM records WHERE schema_id = ? AND "+tt.wantSQL+" ORDER BY id COLLATE BINARY ASC",
				sql)
			assert.Equal(t, append([]any{id.String()}, tt.wantParams...), params)
		})
	}
}

func TestCompile_SortAndPagination(t *testing.T) {
	id := schema.NewSchemaID()
	base := queryir.NewQuery(id).
		WithSort(queryir.MustPath("name"), queryir.Ascending).
		WithSort(queryir.MustPath("age"), queryir.Descending)

	t.Run("limit and offset", func(t *testing.T) {
		sql, params, err := NewSQLCompiler().Compile(base.WithLimit(10).WithOffset(20))
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT id, body FROM records WHERE schema_id = ? ORDER BY json_extract(body, ?) ASC, json_extract(body, ?) DESC, id COLLATE BINARY ASC LIMIT ? OFFSET ?",
			sql)
		assert.Equal(t, []any{id.String(), "$.name", "$.age", int64(10), int64(20)}, params)
	})

	t.Run("limit only", func(t *testing.T) {
		sql, params, err := NewSQLCompiler().Compile(base.WithLimit(5))
		require.NoError(t, err)
		assert.Contains(t, sql, " LIMIT ?")
		assert.NotContains(t, sql, "OFFSET")
		assert.Equal(t, int64(5), params[len(params)-1])
	})

	t.Run("offset only", func(t *testing.T) {
		sql, params, err := NewSQLCompiler().Compile(base.WithOffset(7))
		require.NoError(t, err)
		assert.Contains(t, sql, " LIMIT -1 OFFSET ?")
		assert.Equal(t, int64(7), params[len(params)-1])
	})
}

func TestCompile_Errors(t *testing.T) {
	c := NewSQLCompiler()

	t.Run("zero limit", func(t *testing.T) {
		_, _, err := c.Compile(queryir.NewQuery(schema.NewSchemaID()).WithLimit(0))
		assert.True(t, queryir.HasQueryErrorCode(err, queryir.ErrCodeInvalidLimit))
	})

	t.Run("missing schema", func(t *testing.T) {
		_, _, err := c.Compile(queryir.Query{})
		assert.Error(t, err)
	})

	t.Run("structured value", func(t *testing.T) {
		q := queryir.NewQuery(schema.NewSchemaID()).
			WithFilter(queryir.Eq(queryir.MustPath("tags"), ir.Array{ir.Text("a")}))
		_, _, err := c.Compile(q)
		assert.Error(t, err)
	})
}

func TestCompileCount(t *testing.T) {
	id := schema.NewSchemaID()
	q := queryir.NewQuery(id).
		WithFilter(queryir.Gt(queryir.MustPath("age"), ir.Integer(18))).
		WithSort(queryir.MustPath("age"), queryir.Ascending).
		WithLimit(3)

	sql, params, err := NewSQLCompiler().CompileCount(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM records WHERE schema_id = ? AND json_extract(body, ?) > ?", sql)
	assert.Equal(t, []any{id.String(), "$.age", int64(18)}, params)
}

func TestCompile_NilValues(t *testing.T) {
	p := queryir.MustPath
	id := schema.NewSchemaID()

	sql, params, err := NewSQLCompiler().Compile(queryir.NewQuery(id).WithFilter(queryir.Equals{Path: p("age")}))
	require.NoError(t, err)
	assert.Contains(t, sql, "json_extract(body, ?) IS NULL")
	assert.Equal(t, []any{id.String(), "$.age"}, params)

	sql, params, err = NewSQLCompiler().Compile(queryir.NewQuery(id).WithFilter(queryir.GreaterThan{Path: p("age")}))
	require.NoError(t, err)
	assert.Contains(t, sql, "json_extract(body, ?) > ?")
	assert.Equal(t, []any{id.String(), "$.age", nil}, params)
}
