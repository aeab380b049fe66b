package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/schemaforge/internal/migration"
	"github.com/roach88/schemaforge/internal/schema"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDefinition creates a small valid definition named name.
func createTestDefinition(t *testing.T, name string) *schema.Definition {
	t.Helper()
	def, err := schema.NewDefinition(schema.NewSchemaID(), schema.MustSchemaName(name), []schema.FieldDefinition{
		schema.NewField(schema.MustFieldName("name"), schema.Text{}, schema.Required{}),
		schema.NewField(schema.MustFieldName("age"), schema.Integer{}),
	})
	if err != nil {
		t.Fatalf("NewDefinition() failed: %v", err)
	}
	return def
}

// createTestPlan creates a plan that adds an email field to def.
func createTestPlan(def *schema.Definition) *migration.Plan {
	return migration.NewPlan(def.ID, def.Name, []migration.Step{
		migration.AddField{Field: schema.NewField(schema.MustFieldName("email"), schema.Text{})},
		migration.AddIndex{Field: schema.MustFieldName("email")},
	})
}
