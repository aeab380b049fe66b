package apply

import (
	"errors"
	"fmt"

	"github.com/roach88/schemaforge/internal/migration"
)

// StepError attributes an executor failure to the plan step whose statement
// failed. Steps before StepIndex were applied; the failing step may be
// partially applied; later steps were not attempted.
type StepError struct {
	// Schema is the schema the plan targets.
	Schema string

	// StepIndex is the 0-based position of the failing step in the plan.
	StepIndex int

	// Step is the failing step.
	Step migration.Step

	// Statement is the statement the executor rejected.
	Statement string

	// Err is the underlying storage error.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration of '%s' failed at step %d (%s): %v",
		e.Schema, e.StepIndex+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// FailedStep returns the 1-based number of the failing step.
func (e *StepError) FailedStep() int { return e.StepIndex + 1 }

// AsStepError extracts a StepError from err's chain.
func AsStepError(err error) (*StepError, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
