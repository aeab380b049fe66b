package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/schema"
)

const contactRecords = `[
	{"name": "Ada", "age": 36},
	{"name": "Grace", "age": 29},
	{"name": "Barbara"}
]`

func seededEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	env.mustRun(t, "apply")
	path := env.writeFile(t, "contacts.json", contactRecords)
	out := env.mustRun(t, "put", "Contact", path)
	assert.Contains(t, out, "✓ stored 3 record(s) in Contact")
	return env
}

func TestQueryRun(t *testing.T) {
	env := seededEnv(t)
	queryPath := env.writeFile(t, "older.yaml", "filter:\n  gt: {age: 30}\n")

	out := env.mustRun(t, "query", "Contact", queryPath, "--run")
	assert.Contains(t, out, "SELECT * FROM Contact WHERE age > 30;")
	assert.Contains(t, out, `"name":"Ada"`)
	assert.NotContains(t, out, "Grace")
	assert.Contains(t, out, "(1 of 1 record(s))")
}

func TestQueryCompileOnly(t *testing.T) {
	env := seededEnv(t)
	queryPath := env.writeFile(t, "by_name.yaml", "sort: [\"name desc\"]\nlimit: 2\n")

	out := env.mustRun(t, "--format", "json", "query", "Contact", queryPath)

	var resp struct {
		Data QueryView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "SELECT * FROM Contact ORDER BY name DESC LIMIT 2;", resp.Data.SurrealQL)
	assert.Equal(t, "SELECT count() FROM Contact GROUP ALL;", resp.Data.Count)
	assert.NotEmpty(t, resp.Data.SQL)
	assert.Nil(t, resp.Data.Records)
	assert.Nil(t, resp.Data.Total)
}

func TestQueryAllRecords(t *testing.T) {
	env := seededEnv(t)

	out := env.mustRun(t, "--format", "json", "query", "Contact", "--run")

	var resp struct {
		Data QueryView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Total)
	assert.EqualValues(t, 3, *resp.Data.Total)
	require.Len(t, resp.Data.Records, 3)
	for _, r := range resp.Data.Records {
		assert.NotEmpty(t, r["id"])
	}
}

func TestQueryErrors(t *testing.T) {
	env := seededEnv(t)

	t.Run("unknown field", func(t *testing.T) {
		path := env.writeFile(t, "salary.yaml", "filter:\n  gt: {salary: 10}\n")
		out, err := env.run(t, "query", "Contact", path)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "Error [E301]")
	})

	t.Run("unknown operator", func(t *testing.T) {
		path := env.writeFile(t, "like.yaml", "filter:\n  like: {name: Ada}\n")
		out, err := env.run(t, "query", "Contact", path)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "unknown operator")
	})

	t.Run("schema not applied", func(t *testing.T) {
		out, err := env.run(t, "query", "Deal")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})

	t.Run("missing query file", func(t *testing.T) {
		_, err := env.run(t, "query", "Contact", "nope.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestPutErrors(t *testing.T) {
	env := newTestEnv(t)
	env.writeSchema(t, "contact.cue", contactSchema)
	env.mustRun(t, "apply")

	tests := []struct {
		name     string
		content  string
		wantCode int
		wantErr  string
	}{
		{"unknown field", `{"name": "Ada", "salary": 10}`, ExitFailure, "unknown field 'salary' in schema 'Contact'"},
		{"not an object", `[1, 2]`, ExitFailure, "expected an object"},
		{"bad json", `{"name":`, ExitFailure, "decode JSON"},
		{"bad id", `{"id": 7, "name": "Ada"}`, ExitFailure, "id must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := env.writeFile(t, "records.json", tt.content)
			_, err := env.run(t, "put", "Contact", path)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := env.run(t, "put", "Deal", env.writeFile(t, "deal.json", `{}`))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseQueryFile(t *testing.T) {
	id := schema.NewSchemaID()

	tests := []struct {
		name       string
		yaml       string
		wantFilter string
		wantSort   []string
		wantErr    string
	}{
		{
			name: "empty",
			yaml: "",
		},
		{
			name:       "comparison",
			yaml:       "filter:\n  eq: {status: Customer}\n",
			wantFilter: `status = "Customer"`,
		},
		{
			name: "nested",
			yaml: `filter:
  and:
    - gte: {age: 18}
    - not: {starts_with: {name: Al}}
    - or:
        - contains: {name: ace}
        - in: {city: [London, Paris]}
`,
			wantFilter: `(age >= 18 AND NOT (name STARTS WITH "Al") AND (name CONTAINS "ace" OR city IN ["London", "Paris"]))`,
		},
		{
			name:     "sort",
			yaml:     "sort: [\"age desc\", name, \"city ASC\"]\n",
			wantSort: []string{"age DESC", "name ASC", "city ASC"},
		},
		{
			name:    "unknown key",
			yaml:    "where: {}\n",
			wantErr: "failed to parse query",
		},
		{
			name:    "two operators",
			yaml:    "filter:\n  eq: {a: 1}\n  ne: {b: 2}\n",
			wantErr: "exactly one operator",
		},
		{
			name:    "and needs a list",
			yaml:    "filter:\n  and: {eq: {a: 1}}\n",
			wantErr: "and: expected a list of filters",
		},
		{
			name:    "contains needs text",
			yaml:    "filter:\n  contains: {name: 3}\n",
			wantErr: "contains: value must be a string",
		},
		{
			name:    "in needs a list",
			yaml:    "filter:\n  in: {city: London}\n",
			wantErr: "in: expected a list of values",
		},
		{
			name:    "bad direction",
			yaml:    "sort: [\"age sideways\"]\n",
			wantErr: "unknown direction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQueryFile([]byte(tt.yaml), id)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, q.Schema)

			if tt.wantFilter == "" {
				assert.Nil(t, q.Filter)
			} else {
				require.NotNil(t, q.Filter)
				assert.Equal(t, tt.wantFilter, q.Filter.String())
			}

			sorts := make([]string, len(q.Sort))
			for i, s := range q.Sort {
				sorts[i] = s.Path.Dotted() + " " + s.Order.String()
			}
			if tt.wantSort == nil {
				assert.Empty(t, sorts)
			} else {
				assert.Equal(t, tt.wantSort, sorts)
			}
		})
	}
}

func TestParseQueryFileLimitOffset(t *testing.T) {
	q, err := ParseQueryFile([]byte("limit: 10\noffset: 5\n"), schema.NewSchemaID())
	require.NoError(t, err)
	require.NotNil(t, q.Limit)
	require.NotNil(t, q.Offset)
	assert.EqualValues(t, 10, *q.Limit)
	assert.EqualValues(t, 5, *q.Offset)
	assert.Nil(t, q.Filter)
}
