package querysql

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/queryir"
	"github.com/roach88/schemaforge/internal/schema"
)

// openRecordsDB creates an in-memory records table holding four contacts
// of schema id and one record of another schema.
func openRecordsDB(t *testing.T, id schema.SchemaID) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE records (
		schema_id TEXT NOT NULL,
		id        TEXT NOT NULL,
		body      TEXT NOT NULL,
		seq       INTEGER NOT NULL,
		PRIMARY KEY (schema_id, id)
	)`)
	require.NoError(t, err)

	rows := []struct{ schemaID, id, body string }{
		{id.String(), "a", `{"name": "Ada", "age": 36, "company": {"city": "London"}}`},
		{id.String(), "b", `{"name": "Grace", "age": 29, "company": {"city": "Arlington"}}`},
		{id.String(), "c", `{"name": "Alan", "age": 41}`},
		{id.String(), "d", `{"name": "Barbara"}`},
		{"schema_other", "e", `{"name": "Ada", "age": 99}`},
	}
	for i, r := range rows {
		_, err := db.Exec("INSERT INTO records (schema_id, id, body, seq) VALUES (?, ?, ?, ?)", r.schemaID, r.id, r.body, i+1)
		require.NoError(t, err)
	}
	return db
}

func queryIDs(t *testing.T, db *sql.DB, q queryir.Query) []string {
	t.Helper()
	query, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	rows, err := db.Query(query, params...)
	require.NoError(t, err, "sql: %s", query)
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id, body string
		require.NoError(t, rows.Scan(&id, &body))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestCompile_ExecutesOnSQLite(t *testing.T) {
	id := schema.NewSchemaID()
	db := openRecordsDB(t, id)
	p := queryir.MustPath

	tests := []struct {
		name  string
		query queryir.Query
		want  []string
	}{
		{"all records of the schema", queryir.NewQuery(id), []string{"a", "b", "c", "d"}},
		{"equals", queryir.NewQuery(id).WithFilter(queryir.Eq(p("name"), ir.Text("Ada"))), []string{"a"}},
		{"equals null", queryir.NewQuery(id).WithFilter(queryir.Eq(p("age"), ir.Null{})), []string{"d"}},
		{"greater than", queryir.NewQuery(id).WithFilter(queryir.Gt(p("age"), ir.Integer(30))), []string{"a", "c"}},
		{"less or equal", queryir.NewQuery(id).WithFilter(queryir.Lte(p("age"), ir.Integer(29))), []string{"b"}},
		{"contains", queryir.NewQuery(id).WithFilter(queryir.Contains(p("name"), "ar")), []string{"d"}},
		{"starts with", queryir.NewQuery(id).WithFilter(queryir.StartsWith(p("name"), "A")), []string{"a", "c"}},
		{"nested path", queryir.NewQuery(id).WithFilter(queryir.Eq(p("company.city"), ir.Text("London"))), []string{"a"}},
		{"in set", queryir.NewQuery(id).WithFilter(queryir.InSet(p("name"), ir.Text("Grace"), ir.Text("Alan"))), []string{"b", "c"}},
		{"empty set", queryir.NewQuery(id).WithFilter(queryir.InSet(p("name"))), []string{}},
		{"negation", queryir.NewQuery(id).WithFilter(queryir.Negate(queryir.StartsWith(p("name"), "A"))), []string{"b", "d"}},
		{"any of", queryir.NewQuery(id).WithFilter(queryir.Or(
			queryir.Eq(p("name"), ir.Text("Barbara")),
			queryir.Gte(p("age"), ir.Integer(41)),
		)), []string{"c", "d"}},
		{"sort descending", queryir.NewQuery(id).WithFilter(queryir.Ne(p("age"), ir.Null{})).
			WithSort(p("age"), queryir.Descending), []string{"c", "a", "b"}},
		{"limit", queryir.NewQuery(id).WithLimit(2), []string{"a", "b"}},
		{"limit and offset", queryir.NewQuery(id).WithLimit(2).WithOffset(1), []string{"b", "c"}},
		{"offset only", queryir.NewQuery(id).WithOffset(3), []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryIDs(t, db, tt.query))
		})
	}
}

func TestCompileCount_ExecutesOnSQLite(t *testing.T) {
	id := schema.NewSchemaID()
	db := openRecordsDB(t, id)

	q := queryir.NewQuery(id).
		WithFilter(queryir.Gt(queryir.MustPath("age"), ir.Integer(30))).
		WithLimit(1)
	query, params, err := NewSQLCompiler().CompileCount(q)
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.QueryRow(query, params...).Scan(&n))
	assert.EqualValues(t, 2, n)
}
