package apply

import (
	"context"
	"sync"
)

// Executor runs a single statement against a storage engine.
type Executor interface {
	Execute(ctx context.Context, statement string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, statement string) error

func (f ExecutorFunc) Execute(ctx context.Context, statement string) error {
	return f(ctx, statement)
}

// Recorder is an in-memory Executor. It keeps every statement it accepts,
// which makes it the executor for dry runs and tests.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	// FailOn, when set, is consulted before a statement is recorded. A
	// non-nil result fails the statement and it is not recorded.
	FailOn func(statement string) error

	mu         sync.Mutex
	statements []string
}

// Execute records statement unless the context is done or FailOn rejects it.
func (r *Recorder) Execute(ctx context.Context, statement string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.FailOn != nil {
		if err := r.FailOn(statement); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, statement)
	return nil
}

// Statements returns a copy of the recorded statements in execution order.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.statements...)
}

// Reset forgets every recorded statement.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = nil
}
