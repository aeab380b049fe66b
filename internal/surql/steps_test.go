package surql

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/migration"
	"github.com/roach88/schemaforge/internal/schema"
)

func field(name string, t schema.FieldType, mods ...schema.FieldModifier) schema.FieldDefinition {
	return schema.NewField(schema.MustFieldName(name), t, mods...)
}

func definition(t *testing.T, name string, fields ...schema.FieldDefinition) *schema.Definition {
	t.Helper()
	def, err := schema.NewDefinition(schema.NewSchemaID(), schema.MustSchemaName(name), fields)
	require.NoError(t, err)
	return def
}

func assertGolden(t *testing.T, name string, stmts []string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(strings.Join(stmts, "\n")+"\n"))
}

func TestStepStatements(t *testing.T) {
	email := schema.MustFieldName("email")

	tests := []struct {
		name string
		step migration.Step
		want []string
	}{
		{
			name: "add text field with max length",
			step: migration.AddField{Field: field("email", schema.Text{MaxLength: schema.Uint32Ptr(255)})},
			want: []string{"DEFINE FIELD email ON Contact TYPE option<string> ASSERT string::len($value) <= 255;"},
		},
		{
			name: "add enum field",
			step: migration.AddField{Field: field("status", schema.Enum{Variants: schema.MustEnumVariants("a", "b")})},
			want: []string{"DEFINE FIELD status ON Contact TYPE option<string> ASSERT $value IN ['a', 'b'];"},
		},
		{
			name: "add required integer with range",
			step: migration.AddField{Field: field("age", schema.Integer{Min: schema.Int64Ptr(0), Max: schema.Int64Ptr(150)}, schema.Required{})},
			want: []string{"DEFINE FIELD age ON Contact TYPE int ASSERT $value >= 0 AND $value <= 150 AND $value != NONE;"},
		},
		{
			name: "add boolean with default",
			step: migration.AddField{Field: field("active", schema.Boolean{}, schema.Default{Value: schema.DefaultBoolean(true)})},
			want: []string{"DEFINE FIELD active ON Contact TYPE option<bool> VALUE $value OR true;"},
		},
		{
			name: "add float with declared default",
			step: migration.AddField{Field: field("ratio", schema.Float{}, schema.Default{Value: schema.MustDefaultFloat("0.50")})},
			want: []string{"DEFINE FIELD ratio ON Contact TYPE option<float> VALUE $value OR 0.50;"},
		},
		{
			name: "add indexed field",
			step: migration.AddField{Field: field("email", schema.Text{}, schema.Indexed{})},
			want: []string{
				"DEFINE FIELD email ON Contact TYPE option<string>;",
				"DEFINE INDEX idx_Contact_email ON Contact FIELDS email;",
			},
		},
		{
			name: "add string default is escaped",
			step: migration.AddField{Field: field("note", schema.Text{}, schema.Default{Value: schema.DefaultString("it's")})},
			want: []string{`DEFINE FIELD note ON Contact TYPE option<string> VALUE $value OR 'it\'s';`},
		},
		{
			name: "drop schema",
			step: migration.DropSchema{Name: schema.MustSchemaName("Contact")},
			want: []string{"REMOVE TABLE Contact;"},
		},
		{
			name: "remove field",
			step: migration.RemoveField{Name: email},
			want: []string{"REMOVE FIELD email ON Contact;"},
		},
		{
			name: "rename field is three statements",
			step: migration.RenameField{OldName: schema.MustFieldName("name"), NewName: schema.MustFieldName("full_name")},
			want: []string{
				"DEFINE FIELD full_name ON Contact TYPE any;",
				"UPDATE Contact SET full_name = name;",
				"REMOVE FIELD name ON Contact;",
			},
		},
		{
			name: "change type to enum",
			step: migration.ChangeType{
				Name:      schema.MustFieldName("status"),
				OldType:   schema.Text{},
				NewType:   schema.Enum{Variants: schema.MustEnumVariants("Open", "Closed")},
				Transform: migration.InferTransform(schema.Text{}, schema.Enum{Variants: schema.MustEnumVariants("Open", "Closed")}),
			},
			want: []string{"DEFINE FIELD OVERWRITE status ON Contact TYPE string ASSERT $value IN ['Open', 'Closed'];"},
		},
		{
			name: "change type plain",
			step: migration.ChangeType{
				Name:      schema.MustFieldName("score"),
				OldType:   schema.Integer{},
				NewType:   schema.Float{},
				Transform: migration.TransformIntegerToFloat{},
			},
			want: []string{"DEFINE FIELD OVERWRITE score ON Contact TYPE float;"},
		},
		{
			name: "add index",
			step: migration.AddIndex{Field: email},
			want: []string{"DEFINE INDEX idx_Contact_email ON Contact FIELDS email;"},
		},
		{
			name: "remove index",
			step: migration.RemoveIndex{Field: email},
			want: []string{"REMOVE INDEX idx_Contact_email ON Contact;"},
		},
		{
			name: "add relation one",
			step: migration.AddRelation{Name: schema.MustFieldName("company"), Target: schema.MustSchemaName("Company"), Cardinality: schema.One},
			want: []string{"DEFINE FIELD company ON Contact TYPE option<record<Company>>;"},
		},
		{
			name: "add relation many",
			step: migration.AddRelation{Name: schema.MustFieldName("tags"), Target: schema.MustSchemaName("Tag"), Cardinality: schema.Many},
			want: []string{"DEFINE FIELD tags ON Contact TYPE option<array<record<Tag>>>;"},
		},
		{
			name: "remove relation",
			step: migration.RemoveRelation{Name: schema.MustFieldName("company")},
			want: []string{"REMOVE FIELD company ON Contact;"},
		},
		{
			name: "backfill required touches only absent rows",
			step: migration.BackfillRequired{Field: email, DefaultValue: ir.Text("unknown")},
			want: []string{"UPDATE Contact SET email = 'unknown' WHERE email = NONE;"},
		},
		{
			name: "add required",
			step: migration.AddRequired{Field: email},
			want: []string{"DEFINE FIELD OVERWRITE email ON Contact TYPE any ASSERT $value != NONE;"},
		},
		{
			name: "remove required",
			step: migration.RemoveRequired{Field: email},
			want: []string{"DEFINE FIELD OVERWRITE email ON Contact TYPE any;"},
		},
		{
			name: "set default",
			step: migration.SetDefault{Field: schema.MustFieldName("age"), Value: schema.DefaultInteger(18)},
			want: []string{"DEFINE FIELD OVERWRITE age ON Contact TYPE any VALUE $value OR 18;"},
		},
		{
			name: "remove default",
			step: migration.RemoveDefault{Field: schema.MustFieldName("age")},
			want: []string{"DEFINE FIELD OVERWRITE age ON Contact TYPE any;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StepStatements("Contact", tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepStatementsNil(t *testing.T) {
	_, err := StepStatements("Contact", nil)
	assert.Error(t, err)
}

func TestFieldType(t *testing.T) {
	tests := []struct {
		in   schema.FieldType
		want string
	}{
		{schema.Text{}, "string"},
		{schema.RichText{}, "string"},
		{schema.Integer{}, "int"},
		{schema.Float{}, "float"},
		{schema.Boolean{}, "bool"},
		{schema.DateTime{}, "datetime"},
		{schema.Enum{Variants: schema.MustEnumVariants("a")}, "string"},
		{schema.JSON{}, "object"},
		{schema.Composite{Fields: []schema.FieldDefinition{field("x", schema.Text{})}}, "object"},
		{schema.Relation{Target: schema.MustSchemaName("Company"), Cardinality: schema.One}, "option<record<Company>>"},
		{schema.Relation{Target: schema.MustSchemaName("Tag"), Cardinality: schema.Many}, "option<array<record<Tag>>>"},
		{schema.Array{Element: schema.Integer{}}, "array<int>"},
		{schema.Array{Element: schema.Array{Element: schema.Text{}}}, "array<array<string>>"},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, FieldType(tt.in))
		})
	}
}

func TestAssertions(t *testing.T) {
	assert.Empty(t, Assertions(schema.Text{}))
	assert.Empty(t, Assertions(schema.Float{Precision: new(uint8)}))
	assert.Equal(t, []string{"$value >= -5"}, Assertions(schema.Integer{Min: schema.Int64Ptr(-5)}))
	assert.Equal(t, []string{"$value <= 9"}, Assertions(schema.Integer{Max: schema.Int64Ptr(9)}))
	assert.Equal(t, []string{`$value IN ['it\'s', 'ok']`}, Assertions(schema.Enum{Variants: schema.MustEnumVariants("it's", "ok")}))
}

func TestCreateSchemaGolden(t *testing.T) {
	def := definition(t, "Contact",
		field("name", schema.Text{MaxLength: schema.Uint32Ptr(255)}, schema.Required{}, schema.Indexed{}),
		field("email", schema.Text{}),
		field("age", schema.Integer{Min: schema.Int64Ptr(0), Max: schema.Int64Ptr(150)}, schema.Default{Value: schema.DefaultInteger(18)}),
		field("status", schema.Enum{Variants: schema.MustEnumVariants("Lead", "Customer")}, schema.Default{Value: schema.DefaultString("Lead")}),
		field("company", schema.Relation{Target: schema.MustSchemaName("Company"), Cardinality: schema.One}),
		field("tags", schema.Array{Element: schema.Text{}}),
		field("address", schema.Composite{Fields: []schema.FieldDefinition{
			field("street", schema.Text{}),
			field("zip", schema.Text{MaxLength: schema.Uint32Ptr(10)}),
		}}),
		field("score", schema.Float{}),
	)

	stmts, err := PlanStatements(migration.CreateNew(def))
	require.NoError(t, err)
	assert.Equal(t, "DEFINE TABLE Contact SCHEMAFULL;", stmts[0])
	assertGolden(t, "create_contact", stmts)
}

func TestEvolvePlanGolden(t *testing.T) {
	old := definition(t, "Contact",
		field("name", schema.Text{}, schema.Required{}),
		field("email", schema.Text{}, schema.Indexed{}),
		field("phone", schema.Text{}),
		field("score", schema.Integer{}),
		field("company", schema.Relation{Target: schema.MustSchemaName("Company"), Cardinality: schema.One}),
		field("nickname", schema.Text{}),
	)
	next := definition(t, "Contact",
		field("full_name", schema.Text{}, schema.Required{}),
		field("email", schema.Text{}, schema.Required{}),
		field("score", schema.Float{}),
		field("status", schema.Enum{Variants: schema.MustEnumVariants("Lead", "Customer")}, schema.Default{Value: schema.DefaultString("Lead")}),
		field("owner", schema.Relation{Target: schema.MustSchemaName("User"), Cardinality: schema.Many}),
		field("nickname", schema.Text{}, schema.Default{Value: schema.DefaultString("n/a")}),
	)

	rename, err := migration.ParseRename("name:full_name")
	require.NoError(t, err)

	plan := migration.DiffWithRenames(old, next, []migration.Rename{rename})
	compiled, err := Compile(plan)
	require.NoError(t, err)
	require.Len(t, compiled, plan.Len())
	assert.Len(t, compiled[0].Statements, 3, "rename lowers to define, copy, remove")

	stmts, err := PlanStatements(plan)
	require.NoError(t, err)
	assertGolden(t, "evolve_contact", stmts)
}
