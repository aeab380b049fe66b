package schema

import (
	"errors"
	"fmt"
)

// SchemaError reports a value that failed schema validation.
type SchemaError struct {
	// Code identifies the error category.
	Code SchemaErrorCode

	// Value is the offending input, when there is one.
	Value string

	// Message is a human-readable description.
	Message string
}

// SchemaErrorCode categorizes schema validation errors.
type SchemaErrorCode string

const (
	ErrCodeInvalidSchemaName    SchemaErrorCode = "INVALID_SCHEMA_NAME"
	ErrCodeInvalidFieldName     SchemaErrorCode = "INVALID_FIELD_NAME"
	ErrCodeInvalidSchemaVersion SchemaErrorCode = "INVALID_SCHEMA_VERSION"
	ErrCodeInvalidSchemaID      SchemaErrorCode = "INVALID_SCHEMA_ID"
	ErrCodeEmptyEnumVariants    SchemaErrorCode = "EMPTY_ENUM_VARIANTS"
	ErrCodeEmptyEnumVariant     SchemaErrorCode = "EMPTY_ENUM_VARIANT"
	ErrCodeDuplicateEnumVariant SchemaErrorCode = "DUPLICATE_ENUM_VARIANT"
	ErrCodeInvalidIntegerRange  SchemaErrorCode = "INVALID_INTEGER_RANGE"
	ErrCodeInvalidFloatString   SchemaErrorCode = "INVALID_FLOAT_STRING"
	ErrCodeDuplicateFieldName   SchemaErrorCode = "DUPLICATE_FIELD_NAME"
	ErrCodeDuplicateAnnotation  SchemaErrorCode = "DUPLICATE_ANNOTATION"
	ErrCodeEmptyFields          SchemaErrorCode = "EMPTY_FIELDS"
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return e.Message
}

func newSchemaError(code SchemaErrorCode, value, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Value: value, Message: fmt.Sprintf(format, args...)}
}

// HasSchemaErrorCode reports whether err wraps a SchemaError with the given code.
func HasSchemaErrorCode(err error, code SchemaErrorCode) bool {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
