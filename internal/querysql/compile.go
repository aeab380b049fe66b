package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/queryir"
)

// DefaultTable is the document table the store keeps records in.
const DefaultTable = "records"

// SQLCompiler compiles Query IR to parameterized SQL for SQLite.
//
// Records live in a single document table (schema_id, id, body) where body
// is a JSON object; field paths are resolved with json_extract.
//
// CRITICAL: All queries end with an id tiebreaker so results are deterministic.
// CRITICAL: All values are parameterized (never interpolated), paths included.
type SQLCompiler struct {
	// Table is the document table name. Empty means DefaultTable.
	Table string
}

// NewSQLCompiler creates a compiler over the default records table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

func (c *SQLCompiler) table() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// Compile converts a query to a SELECT returning (id, body) rows.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	where, params, err := c.compileWhere(q)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT id, body FROM %s WHERE %s", c.table(), where)

	// MANDATORY: explicit sort keys first, then the id tiebreaker.
	b.WriteString(" ORDER BY ")
	for _, s := range q.Sort {
		fmt.Fprintf(&b, "json_extract(body, ?) %s, ", s.Order)
		params = append(params, jsonPath(s.Path))
	}
	b.WriteString("id COLLATE BINARY ASC")

	switch {
	case q.Limit != nil && q.Offset != nil:
		b.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, int64(*q.Limit), int64(*q.Offset))
	case q.Limit != nil:
		b.WriteString(" LIMIT ?")
		params = append(params, int64(*q.Limit))
	case q.Offset != nil:
		// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
		b.WriteString(" LIMIT -1 OFFSET ?")
		params = append(params, int64(*q.Offset))
	}

	return b.String(), params, nil
}

// CompileCount converts a query to a COUNT(*) over its filter.
// Sort, limit and offset are ignored.
func (c *SQLCompiler) CompileCount(q queryir.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	where, params, err := c.compileWhere(q)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.table(), where), params, nil
}

func (c *SQLCompiler) compileWhere(q queryir.Query) (string, []any, error) {
	where := "schema_id = ?"
	params := []any{q.Schema.String()}
	if q.Filter == nil {
		return where, params, nil
	}
	filterSQL, filterParams, err := c.compileFilter(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return where + " AND " + filterSQL, append(params, filterParams...), nil
}

// compileFilter compiles a filter to a WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compileFilter(f queryir.Filter) (string, []any, error) {
	switch f := f.(type) {
	case queryir.Equals:
		if isNull(f.Value) {
			return "json_extract(body, ?) IS NULL", []any{jsonPath(f.Path)}, nil
		}
		return compileComparison(f.Path, "=", f.Value)
	case queryir.NotEquals:
		if isNull(f.Value) {
			return "json_extract(body, ?) IS NOT NULL", []any{jsonPath(f.Path)}, nil
		}
		return compileComparison(f.Path, "!=", f.Value)
	case queryir.GreaterThan:
		return compileComparison(f.Path, ">", f.Value)
	case queryir.GreaterOrEqual:
		return compileComparison(f.Path, ">=", f.Value)
	case queryir.LessThan:
		return compileComparison(f.Path, "<", f.Value)
	case queryir.LessOrEqual:
		return compileComparison(f.Path, "<=", f.Value)
	case queryir.Substring:
		return "instr(json_extract(body, ?), ?) > 0", []any{jsonPath(f.Path), f.Value}, nil
	case queryir.Prefix:
		return "substr(json_extract(body, ?), 1, length(?)) = ?", []any{jsonPath(f.Path), f.Value, f.Value}, nil
	case queryir.Membership:
		return compileIn(f)
	case queryir.AllOf:
		return c.compileGroup(f.Filters, " AND ", "1 = 1")
	case queryir.AnyOf:
		return c.compileGroup(f.Filters, " OR ", "0 = 1")
	case queryir.Negation:
		inner, params, err := c.compileFilter(f.Filter)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", params, nil
	case nil:
		return "1 = 1", nil, nil // Always true
	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

// compileComparison compiles "json_extract(body, ?) <op> ?".
func compileComparison(path queryir.FieldPath, op string, v ir.Value) (string, []any, error) {
	param, err := ir.ToNative(v)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return "json_extract(body, ?) " + op + " ?", []any{jsonPath(path), param}, nil
}

// compileIn compiles set membership. An empty set matches nothing.
func compileIn(f queryir.Membership) (string, []any, error) {
	if len(f.Values) == 0 {
		return "0 = 1", nil, nil
	}
	params := []any{jsonPath(f.Path)}
	placeholders := make([]string, len(f.Values))
	for i, v := range f.Values {
		param, err := ir.ToNative(v)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		placeholders[i] = "?"
		params = append(params, param)
	}
	return "json_extract(body, ?) IN (" + strings.Join(placeholders, ", ") + ")", params, nil
}

func (c *SQLCompiler) compileGroup(filters []queryir.Filter, sep, empty string) (string, []any, error) {
	if len(filters) == 0 {
		return empty, nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, child := range filters {
		sql, params, err := c.compileFilter(child)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return "(" + strings.Join(sqlParts, sep) + ")", allParams, nil
}

func isNull(v ir.Value) bool {
	_, ok := v.(ir.Null)
	return v == nil || ok
}

var plainSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// jsonPath converts a field path to a SQLite JSON path, e.g. $.company.industry.
// Segments that are not plain identifiers are double-quoted.
func jsonPath(p queryir.FieldPath) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range p.Segments() {
		b.WriteByte('.')
		if plainSegment.MatchString(seg) {
			b.WriteString(seg)
		} else {
			b.WriteString(`"` + strings.ReplaceAll(seg, `"`, `\"`) + `"`)
		}
	}
	return b.String()
}
