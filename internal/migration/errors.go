package migration

import (
	"errors"
	"fmt"
)

// MigrationError reports why a plan cannot be applied as requested.
// The diff engine never returns these; they come from Gate and ID parsing.
type MigrationError struct {
	// Code identifies the error category.
	Code MigrationErrorCode

	// Field is the affected field, when there is one.
	Field string

	// Step is the display form of the offending step.
	Step string

	// From and To are the type names of an unsupported conversion.
	From string
	To   string

	// Value is the offending input for parse errors.
	Value string
}

// MigrationErrorCode categorizes migration errors.
type MigrationErrorCode string

const (
	ErrCodeInvalidMigrationID             MigrationErrorCode = "INVALID_MIGRATION_ID"
	ErrCodeDestructiveWithoutConfirmation MigrationErrorCode = "DESTRUCTIVE_WITHOUT_CONFIRMATION"
	ErrCodeConfirmationRequired           MigrationErrorCode = "CONFIRMATION_REQUIRED"
	ErrCodeRequiredFieldWithoutDefault    MigrationErrorCode = "REQUIRED_FIELD_WITHOUT_DEFAULT"
	ErrCodeUnsupportedTypeConversion      MigrationErrorCode = "UNSUPPORTED_TYPE_CONVERSION"
	ErrCodeEmptyMigrationPlan             MigrationErrorCode = "EMPTY_MIGRATION_PLAN"
)

// Error implements the error interface.
func (e *MigrationError) Error() string {
	switch e.Code {
	case ErrCodeInvalidMigrationID:
		return "invalid migration id: " + e.Value
	case ErrCodeDestructiveWithoutConfirmation:
		return "destructive migration step requires confirmation: " + e.Step
	case ErrCodeConfirmationRequired:
		return "migration step requires confirmation: " + e.Step
	case ErrCodeRequiredFieldWithoutDefault:
		return fmt.Sprintf("required field '%s' was added without a default value for backfill", e.Field)
	case ErrCodeUnsupportedTypeConversion:
		return fmt.Sprintf("unsupported type conversion for field '%s': %s -> %s", e.Field, e.From, e.To)
	case ErrCodeEmptyMigrationPlan:
		return "migration plan has no steps to apply"
	default:
		return string(e.Code)
	}
}

// HasMigrationErrorCode reports whether err wraps a MigrationError with the given code.
// Uses errors.As to handle wrapped errors.
func HasMigrationErrorCode(err error, code MigrationErrorCode) bool {
	var me *MigrationError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsGateError reports whether err is a policy rejection from Gate rather
// than a malformed input.
func IsGateError(err error) bool {
	var me *MigrationError
	if !errors.As(err, &me) {
		return false
	}
	return me.Code != ErrCodeInvalidMigrationID
}
