package queryir

import (
	"github.com/roach88/schemaforge/internal/ir"
	"github.com/roach88/schemaforge/internal/schema"
)

// ValidateFilter checks a filter against a schema definition.
// Returns all errors found (does not fail-fast); nil means the filter is valid.
//
// Only the root segment of a path is resolved. Value types are checked for
// single-segment paths; nested paths into Json or Composite fields are
// accepted as long as the root field exists.
func ValidateFilter(f Filter, def *schema.Definition) []*QueryError {
	v := filterValidator{def: def}
	v.walk(f)
	return v.errs
}

type filterValidator struct {
	def  *schema.Definition
	errs []*QueryError
}

func (v *filterValidator) walk(f Filter) {
	switch f := f.(type) {
	case Equals:
		v.comparison(f.Path, f.Value)
	case NotEquals:
		v.comparison(f.Path, f.Value)
	case GreaterThan:
		v.comparison(f.Path, f.Value)
	case GreaterOrEqual:
		v.comparison(f.Path, f.Value)
	case LessThan:
		v.comparison(f.Path, f.Value)
	case LessOrEqual:
		v.comparison(f.Path, f.Value)
	case Substring:
		v.textMatch(f.Path)
	case Prefix:
		v.textMatch(f.Path)
	case Membership:
		field, ok := v.lookup(f.Path)
		if len(f.Values) == 0 {
			v.errs = append(v.errs, &QueryError{Code: ErrCodeEmptyInValues, Field: f.Path.Dotted()})
		}
		if ok && f.Path.IsSimple() {
			for _, value := range f.Values {
				v.checkValue(field, value)
			}
		}
	case AllOf:
		for _, child := range f.Filters {
			v.walk(child)
		}
	case AnyOf:
		for _, child := range f.Filters {
			v.walk(child)
		}
	case Negation:
		v.walk(f.Filter)
	}
}

// lookup resolves the path's root field, recording UNKNOWN_FIELD on a miss.
func (v *filterValidator) lookup(p FieldPath) (schema.FieldDefinition, bool) {
	field, ok := v.def.Field(p.Root())
	if !ok {
		v.errs = append(v.errs, &QueryError{
			Code:   ErrCodeUnknownField,
			Field:  p.Root(),
			Schema: v.def.Name.String(),
		})
	}
	return field, ok
}

func (v *filterValidator) comparison(p FieldPath, value ir.Value) {
	field, ok := v.lookup(p)
	if ok && p.IsSimple() {
		v.checkValue(field, value)
	}
}

func (v *filterValidator) textMatch(p FieldPath) {
	field, ok := v.lookup(p)
	if ok && p.IsSimple() && !schema.IsTextLike(field.Type) {
		v.errs = append(v.errs, &QueryError{
			Code:     ErrCodeTypeMismatch,
			Field:    p.Root(),
			Expected: "Text",
			Actual:   field.Type.Kind(),
		})
	}
}

func (v *filterValidator) checkValue(field schema.FieldDefinition, value ir.Value) {
	if !compatible(field.Type, value) {
		v.errs = append(v.errs, &QueryError{
			Code:     ErrCodeTypeMismatch,
			Field:    field.Name.String(),
			Expected: field.Type.Kind(),
			Actual:   value.Kind(),
		})
	}
}

// compatible reports whether value may be compared against a field of type t.
// Null (or a nil value) is compatible with everything. Json, Relation, Array and Composite
// fields accept any value.
func compatible(t schema.FieldType, value ir.Value) bool {
	if _, ok := orNull(value).(ir.Null); ok {
		return true
	}
	switch t.(type) {
	case schema.Text, schema.RichText:
		_, ok := value.(ir.Text)
		return ok
	case schema.Integer:
		_, ok := value.(ir.Integer)
		return ok
	case schema.Float:
		switch value.(type) {
		case ir.Float, ir.Integer:
			return true
		}
		return false
	case schema.Boolean:
		_, ok := value.(ir.Boolean)
		return ok
	case schema.DateTime:
		_, ok := value.(ir.DateTime)
		return ok
	case schema.Enum:
		switch value.(type) {
		case ir.Enum, ir.Text:
			return true
		}
		return false
	default:
		return true
	}
}
