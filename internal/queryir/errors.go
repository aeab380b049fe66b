package queryir

import (
	"errors"
	"fmt"
)

// QueryError reports an invalid path, query or filter.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Path is the offending field path (dotted), when there is one.
	Path string

	// Reason explains an invalid path.
	Reason string

	// Limit is the rejected limit value.
	Limit uint

	// Field and Schema name an unknown field.
	Field  string
	Schema string

	// Expected and Actual describe a type mismatch.
	Expected string
	Actual   string
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	ErrCodeEmptyFieldPath   QueryErrorCode = "EMPTY_FIELD_PATH"
	ErrCodeInvalidFieldPath QueryErrorCode = "INVALID_FIELD_PATH"
	ErrCodeInvalidLimit     QueryErrorCode = "INVALID_LIMIT"
	ErrCodeUnknownField     QueryErrorCode = "UNKNOWN_FIELD"
	ErrCodeTypeMismatch     QueryErrorCode = "TYPE_MISMATCH"
	ErrCodeEmptyInValues    QueryErrorCode = "EMPTY_IN_VALUES"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	switch e.Code {
	case ErrCodeEmptyFieldPath:
		return "field path must not be empty"
	case ErrCodeInvalidFieldPath:
		return fmt.Sprintf("invalid field path '%s': %s", e.Path, e.Reason)
	case ErrCodeInvalidLimit:
		return fmt.Sprintf("invalid limit %d: must be greater than 0", e.Limit)
	case ErrCodeUnknownField:
		return fmt.Sprintf("unknown field '%s' in schema '%s'", e.Field, e.Schema)
	case ErrCodeTypeMismatch:
		return fmt.Sprintf("type mismatch for field '%s': expected %s, got %s", e.Field, e.Expected, e.Actual)
	case ErrCodeEmptyInValues:
		return fmt.Sprintf("IN filter for field '%s' has no values", e.Field)
	default:
		return string(e.Code)
	}
}

// HasQueryErrorCode reports whether err wraps a QueryError with the given code.
// Uses errors.As to handle wrapped errors.
func HasQueryErrorCode(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}
