package apply

import (
	"context"
	"log/slog"

	"github.com/roach88/schemaforge/internal/surql"
)

// Sequential applies compiled steps one statement at a time, strictly in
// emission order. Statements are never reordered or run concurrently,
// because later steps can depend on storage state left by earlier ones.
//
// Sequential provides no atomicity. A transactional executor can be
// supplied as the Executor without changing how plans are compiled.
type Sequential struct {
	exec   Executor
	logger *slog.Logger
}

// NewSequential creates a Sequential over exec. A nil logger uses
// slog.Default().
func NewSequential(exec Executor, logger *slog.Logger) *Sequential {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequential{exec: exec, logger: logger}
}

// Run executes every statement of steps for schemaName and returns how many
// statements succeeded. It stops at the first failure, including a done
// context, and returns a *StepError naming the failing step.
func (s *Sequential) Run(ctx context.Context, schemaName string, steps []surql.CompiledStep) (int, error) {
	executed := 0
	for _, step := range steps {
		for _, stmt := range step.Statements {
			err := ctx.Err()
			if err == nil {
				err = s.exec.Execute(ctx, stmt)
			}
			if err != nil {
				s.logger.Error("statement failed",
					"schema", schemaName,
					"step", step.Index+1,
					"kind", step.Step.Kind(),
					"error", err)
				return executed, &StepError{
					Schema:    schemaName,
					StepIndex: step.Index,
					Step:      step.Step,
					Statement: stmt,
					Err:       err,
				}
			}
			executed++
			s.logger.Debug("statement executed",
				"schema", schemaName,
				"step", step.Index+1,
				"statement", stmt)
		}
	}
	return executed, nil
}
