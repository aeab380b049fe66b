package surql

import (
	"strconv"
	"strings"

	"github.com/roach88/schemaforge/internal/schema"
)

// FieldType returns the SurrealQL TYPE for a field type.
//
// Relations are always optional since a referenced record may be absent.
// Arrays recurse on their element type.
func FieldType(t schema.FieldType) string {
	switch t := t.(type) {
	case schema.Text, schema.RichText, schema.Enum:
		return "string"
	case schema.Integer:
		return "int"
	case schema.Float:
		return "float"
	case schema.Boolean:
		return "bool"
	case schema.DateTime:
		return "datetime"
	case schema.JSON, schema.Composite:
		return "object"
	case schema.Relation:
		if t.Cardinality == schema.Many {
			return "option<array<record<" + t.Target.String() + ">>>"
		}
		return "option<record<" + t.Target.String() + ">>"
	case schema.Array:
		return "array<" + FieldType(t.Element) + ">"
	default:
		return "any"
	}
}

// Assertions returns the ASSERT conditions implied by a type's constraints,
// in a stable order. Float precision is a display concern and yields none.
func Assertions(t schema.FieldType) []string {
	switch t := t.(type) {
	case schema.Text:
		if t.MaxLength != nil {
			return []string{"string::len($value) <= " + strconv.FormatUint(uint64(*t.MaxLength), 10)}
		}
	case schema.Integer:
		var out []string
		if t.Min != nil {
			out = append(out, "$value >= "+strconv.FormatInt(*t.Min, 10))
		}
		if t.Max != nil {
			out = append(out, "$value <= "+strconv.FormatInt(*t.Max, 10))
		}
		return out
	case schema.Enum:
		values := t.Variants.Values()
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = quote(v)
		}
		return []string{"$value IN [" + strings.Join(quoted, ", ") + "]"}
	}
	return nil
}

func withAssertions(stmt string, assertions []string) string {
	if len(assertions) == 0 {
		return stmt
	}
	return stmt + " ASSERT " + strings.Join(assertions, " AND ")
}
