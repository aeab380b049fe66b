package surql

import (
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/migration"
	"github.com/roach88/schemaforge/internal/schema"
)

// CompiledStep pairs a plan step with the statements it lowers to.
type CompiledStep struct {
	Index      int
	Step       migration.Step
	Statements []string
}

// Compile lowers every step of a plan against the table named after the
// plan's schema. Steps keep their plan order.
func Compile(plan *migration.Plan) ([]CompiledStep, error) {
	return CompileSteps(plan.SchemaName().String(), plan.Steps())
}

// CompileSteps lowers steps against table, keeping their order.
func CompileSteps(table string, steps []migration.Step) ([]CompiledStep, error) {
	out := make([]CompiledStep, 0, len(steps))
	for i, step := range steps {
		stmts, err := StepStatements(table, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		out = append(out, CompiledStep{Index: i, Step: step, Statements: stmts})
	}
	return out, nil
}

// PlanStatements flattens Compile into a single ordered statement list.
func PlanStatements(plan *migration.Plan) ([]string, error) {
	compiled, err := Compile(plan)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, c := range compiled {
		stmts = append(stmts, c.Statements...)
	}
	return stmts, nil
}

// StepStatements lowers one migration step to SurrealQL statements against
// table. The returned statements must be executed in order.
func StepStatements(table string, step migration.Step) ([]string, error) {
	switch s := step.(type) {
	case migration.CreateSchema:
		stmts := []string{fmt.Sprintf("DEFINE TABLE %s SCHEMAFULL;", table)}
		for _, f := range s.Fields {
			stmts = append(stmts, defineField(table, f)...)
		}
		return stmts, nil

	case migration.DropSchema:
		return []string{fmt.Sprintf("REMOVE TABLE %s;", table)}, nil

	case migration.AddField:
		return defineField(table, s.Field), nil

	case migration.RemoveField:
		return []string{fmt.Sprintf("REMOVE FIELD %s ON %s;", s.Name, table)}, nil

	case migration.RenameField:
		return []string{
			fmt.Sprintf("DEFINE FIELD %s ON %s TYPE any;", s.NewName, table),
			fmt.Sprintf("UPDATE %s SET %s = %s;", table, s.NewName, s.OldName),
			fmt.Sprintf("REMOVE FIELD %s ON %s;", s.OldName, table),
		}, nil

	case migration.ChangeType:
		// The transform is informational; no conversion pass is emitted.
		stmt := fmt.Sprintf("DEFINE FIELD OVERWRITE %s ON %s TYPE %s", s.Name, table, FieldType(s.NewType))
		return []string{withAssertions(stmt, Assertions(s.NewType)) + ";"}, nil

	case migration.AddIndex:
		return []string{fmt.Sprintf("DEFINE INDEX %s ON %s FIELDS %s;", IndexName(table, s.Field), table, s.Field)}, nil

	case migration.RemoveIndex:
		return []string{fmt.Sprintf("REMOVE INDEX %s ON %s;", IndexName(table, s.Field), table)}, nil

	case migration.AddRelation:
		rel := schema.Relation{Target: s.Target, Cardinality: s.Cardinality}
		return []string{fmt.Sprintf("DEFINE FIELD %s ON %s TYPE %s;", s.Name, table, FieldType(rel))}, nil

	case migration.RemoveRelation:
		return []string{fmt.Sprintf("REMOVE FIELD %s ON %s;", s.Name, table)}, nil

	case migration.BackfillRequired:
		return []string{fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = NONE;", table, s.Field, Literal(s.DefaultValue), s.Field)}, nil

	case migration.AddRequired:
		return []string{fmt.Sprintf("DEFINE FIELD OVERWRITE %s ON %s TYPE any ASSERT $value != NONE;", s.Field, table)}, nil

	case migration.RemoveRequired:
		return []string{fmt.Sprintf("DEFINE FIELD OVERWRITE %s ON %s TYPE any;", s.Field, table)}, nil

	case migration.SetDefault:
		return []string{fmt.Sprintf("DEFINE FIELD OVERWRITE %s ON %s TYPE any VALUE $value OR %s;", s.Field, table, defaultLiteral(s.Value))}, nil

	case migration.RemoveDefault:
		return []string{fmt.Sprintf("DEFINE FIELD OVERWRITE %s ON %s TYPE any;", s.Field, table)}, nil

	case nil:
		return nil, fmt.Errorf("nil migration step")

	default:
		return nil, fmt.Errorf("unsupported migration step %s", step.Kind())
	}
}

// IndexName is the deterministic index name for a table field.
func IndexName(table string, field schema.FieldName) string {
	return "idx_" + table + "_" + field.String()
}

// defineField renders a full field definition: type, optionality,
// assertions and default, then its index and composite sub-fields.
func defineField(table string, f schema.FieldDefinition) []string {
	typ := FieldType(f.Type)
	required := f.IsRequired()
	if !required && !strings.HasPrefix(typ, "option<") {
		typ = "option<" + typ + ">"
	}

	assertions := Assertions(f.Type)
	if required {
		assertions = append(assertions, "$value != NONE")
	}

	stmt := withAssertions(fmt.Sprintf("DEFINE FIELD %s ON %s TYPE %s", f.Name, table, typ), assertions)
	if d, ok := f.DefaultValue(); ok {
		stmt += " VALUE $value OR " + defaultLiteral(d)
	}
	stmts := []string{stmt + ";"}

	if f.IsIndexed() {
		stmts = append(stmts, fmt.Sprintf("DEFINE INDEX %s ON %s FIELDS %s;", IndexName(table, f.Name), table, f.Name))
	}

	if c, ok := f.Type.(schema.Composite); ok {
		for _, sub := range c.Fields {
			nested := fmt.Sprintf("DEFINE FIELD %s.%s ON %s TYPE %s", f.Name, sub.Name, table, FieldType(sub.Type))
			stmts = append(stmts, withAssertions(nested, Assertions(sub.Type))+";")
		}
	}
	return stmts
}
