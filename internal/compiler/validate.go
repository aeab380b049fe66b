package compiler

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/schemaforge/internal/schema"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateSchemaName = "E101" // two sources declare the same schema
	ErrDuplicateSchemaID   = "E102" // two schemas share an id
	ErrUnknownRelation     = "E103" // relation target is not a compiled schema
	ErrUnknownDisplayField = "E104" // @display names a missing field
	ErrDefaultTypeMismatch = "E105" // default literal does not fit the field type
	ErrDefaultOutOfRange   = "E106" // default violates the field's constraints
)

// ValidationError represents a schema set validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a set of compiled schemas against each other.
// Returns all errors found (does not fail-fast), in schema then field order.
//
// Single-definition rules (naming, duplicate fields, enum variants) are
// enforced by schema.NewDefinition at compile time.
func Validate(defs []*schema.Definition) []ValidationError {
	var errs []ValidationError

	names := make(map[string]bool, len(defs))
	ids := make(map[string]string, len(defs))
	for _, def := range defs {
		name := def.Name.String()
		if names[name] {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("schema %q is declared more than once", name),
				Code:    ErrDuplicateSchemaName,
			})
		}
		names[name] = true

		if other, ok := ids[def.ID.String()]; ok && other != name {
			errs = append(errs, ValidationError{
				Field:   name + ".id",
				Message: fmt.Sprintf("id %s is already used by schema %q", def.ID, other),
				Code:    ErrDuplicateSchemaID,
			})
		}
		ids[def.ID.String()] = name
	}

	for _, def := range defs {
		name := def.Name.String()
		if display, ok := def.DisplayField(); ok {
			if _, exists := def.Field(display.String()); !exists {
				errs = append(errs, ValidationError{
					Field:   name + ".display",
					Message: fmt.Sprintf("display field %q does not exist", display),
					Code:    ErrUnknownDisplayField,
				})
			}
		}
		errs = append(errs, validateFields(def.Fields, name+".fields", names)...)
	}

	return errs
}

func validateFields(fields []schema.FieldDefinition, path string, names map[string]bool) []ValidationError {
	var errs []ValidationError
	for _, f := range fields {
		fieldPath := path + "." + f.Name.String()
		errs = append(errs, validateType(f.Type, fieldPath, names)...)
		if d, ok := f.DefaultValue(); ok {
			if err := validateDefault(f.Type, d, fieldPath+".default"); err != nil {
				errs = append(errs, *err)
			}
		}
	}
	return errs
}

func validateType(t schema.FieldType, path string, names map[string]bool) []ValidationError {
	switch ft := t.(type) {
	case schema.Relation:
		if !names[ft.Target.String()] {
			return []ValidationError{{
				Field:   path,
				Message: fmt.Sprintf("relation target %q is not a known schema", ft.Target),
				Code:    ErrUnknownRelation,
			}}
		}
	case schema.Array:
		return validateType(ft.Element, path+".items", names)
	case schema.Composite:
		return validateFields(ft.Fields, path+".fields", names)
	}
	return nil
}

// validateDefault checks that d fits t. Integer literals are accepted as
// Float defaults.
func validateDefault(t schema.FieldType, d schema.DefaultValue, path string) *ValidationError {
	mismatch := func() *ValidationError {
		return &ValidationError{
			Field:   path,
			Message: fmt.Sprintf("default %s does not fit type %s", d, t),
			Code:    ErrDefaultTypeMismatch,
		}
	}
	outOfRange := func(reason string) *ValidationError {
		return &ValidationError{Field: path, Message: reason, Code: ErrDefaultOutOfRange}
	}

	switch ft := t.(type) {
	case schema.Text:
		s, ok := d.(schema.DefaultString)
		if !ok {
			return mismatch()
		}
		if ft.MaxLength != nil && uint32(utf8.RuneCountInString(string(s))) > *ft.MaxLength {
			return outOfRange(fmt.Sprintf("default is longer than max_length %d", *ft.MaxLength))
		}
	case schema.RichText:
		if _, ok := d.(schema.DefaultString); !ok {
			return mismatch()
		}
	case schema.Enum:
		s, ok := d.(schema.DefaultString)
		if !ok {
			return mismatch()
		}
		if !ft.Variants.Contains(string(s)) {
			return outOfRange(fmt.Sprintf("default %s is not one of %s", s, ft.Variants))
		}
	case schema.Integer:
		n, ok := d.(schema.DefaultInteger)
		if !ok {
			return mismatch()
		}
		if ft.Min != nil && int64(n) < *ft.Min {
			return outOfRange(fmt.Sprintf("default %d is below min %d", n, *ft.Min))
		}
		if ft.Max != nil && int64(n) > *ft.Max {
			return outOfRange(fmt.Sprintf("default %d is above max %d", n, *ft.Max))
		}
	case schema.Float:
		switch d.(type) {
		case schema.DefaultFloat, schema.DefaultInteger:
		default:
			return mismatch()
		}
	case schema.Boolean:
		if _, ok := d.(schema.DefaultBoolean); !ok {
			return mismatch()
		}
	default:
		return mismatch()
	}
	return nil
}
