package surql

import (
	"strconv"
	"strings"
	"time"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

var stringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote renders s as a single-quoted SurrealQL string.
func quote(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

// Literal renders a value as a SurrealQL literal. Null becomes NONE, the
// engine's absent sentinel.
func Literal(v ir.Value) string {
	switch v := v.(type) {
	case nil, ir.Null:
		return "NONE"
	case ir.Text:
		return quote(string(v))
	case ir.Enum:
		return quote(string(v))
	case ir.Integer:
		return strconv.FormatInt(int64(v), 10)
	case ir.Float:
		return ir.FormatFloat(float64(v))
	case ir.Boolean:
		return strconv.FormatBool(bool(v))
	case ir.DateTime:
		return "d" + quote(v.Time().Format(time.RFC3339Nano))
	case ir.JSON:
		return string(v)
	case ir.Array:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = Literal(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case ir.Composite:
		keys := v.SortedKeys()
		if len(keys) == 0 {
			return "{}"
		}
		entries := make([]string, len(keys))
		for i, k := range keys {
			entries[i] = k + ": " + Literal(v[k])
		}
		return "{ " + strings.Join(entries, ", ") + " }"
	case ir.Ref:
		return quote(ir.EntityID(v).String())
	case ir.RefArray:
		items := make([]string, len(v))
		for i, id := range v {
			items[i] = quote(id.String())
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return quote(v.String())
	}
}

// defaultLiteral renders a field default. Float defaults keep their
// declared spelling.
func defaultLiteral(d schema.DefaultValue) string {
	if s, ok := d.(schema.DefaultString); ok {
		return quote(string(s))
	}
	return d.String()
}
