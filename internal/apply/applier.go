package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/schemaforge/internal/migration"
	"github.com/roach88/schemaforge/internal/schema"
	"github.com/roach88/schemaforge/internal/store"
	"github.com/roach88/schemaforge/internal/surql"
)

// History persists the outcome of applied plans. *store.Store implements it.
type History interface {
	RecordMigration(ctx context.Context, e store.HistoryEntry) (store.HistoryEntry, error)
	SaveSnapshot(ctx context.Context, def *schema.Definition) (store.Snapshot, error)
}

// Applier compiles migration steps to SurrealQL and runs them through an
// Executor.
//
// Thread-safety: Applier is safe for concurrent use. Applies to the same
// schema name are serialized; applies to different schemas are not.
type Applier struct {
	seq     *Sequential
	locks   *schemaLocks
	history History
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Applier) { a.logger = l }
}

// WithHistory records every applied plan and saves target snapshots.
func WithHistory(h History) Option {
	return func(a *Applier) { a.history = h }
}

// WithMetrics sets the collectors updated after each apply.
func WithMetrics(m *Metrics) Option {
	return func(a *Applier) { a.metrics = m }
}

// New creates an Applier that executes statements with exec.
func New(exec Executor, opts ...Option) *Applier {
	a := &Applier{
		locks:  newSchemaLocks(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.seq = NewSequential(exec, a.logger)
	return a
}

// ApplyMigration lowers steps against the table named schemaName and
// executes them in order. It returns a *StepError for the first failing
// statement. Nothing is recorded in history.
func (a *Applier) ApplyMigration(ctx context.Context, schemaName string, steps []migration.Step) error {
	release, err := a.locks.Acquire(ctx, schemaName)
	if err != nil {
		return err
	}
	defer release()

	_, err = a.run(ctx, schemaName, steps)
	return err
}

// Apply executes plan. With a History configured it records the outcome,
// including failures, and on success saves target as the schema's snapshot.
// A nil target skips the snapshot. An empty plan executes nothing and is
// not recorded.
//
// Apply does not gate on safety; callers check migration.Gate first.
func (a *Applier) Apply(ctx context.Context, plan *migration.Plan, target *schema.Definition) (store.HistoryEntry, error) {
	name := plan.SchemaName().String()
	if plan.IsEmpty() {
		a.logger.Info("nothing to apply", "schema", name)
		return store.HistoryEntry{}, nil
	}

	release, err := a.locks.Acquire(ctx, name)
	if err != nil {
		return store.HistoryEntry{}, err
	}
	defer release()

	a.logger.Info("applying migration",
		"schema", name,
		"plan", plan.ID(),
		"steps", plan.Len(),
		"safety", plan.OverallSafety())

	_, runErr := a.run(ctx, name, plan.Steps())

	failedStep := 0
	if se, ok := AsStepError(runErr); ok {
		failedStep = se.FailedStep()
	}
	entry, err := store.NewHistoryEntry(plan, failedStep, runErr)
	if err != nil {
		return store.HistoryEntry{}, errors.Join(runErr, err)
	}

	if a.history != nil {
		recorded, err := a.history.RecordMigration(ctx, entry)
		if err != nil {
			return entry, errors.Join(runErr, fmt.Errorf("record history: %w", err))
		}
		entry = recorded
	}
	if runErr != nil {
		return entry, runErr
	}

	if a.history != nil && target != nil {
		if _, err := a.history.SaveSnapshot(ctx, target); err != nil {
			return entry, fmt.Errorf("save snapshot: %w", err)
		}
	}

	a.logger.Info("migration applied", "schema", name, "plan", plan.ID())
	return entry, nil
}

func (a *Applier) run(ctx context.Context, schemaName string, steps []migration.Step) (int, error) {
	compiled, err := surql.CompileSteps(schemaName, steps)
	if err != nil {
		return 0, fmt.Errorf("compile %s: %w", schemaName, err)
	}

	start := time.Now()
	executed, err := a.seq.Run(ctx, schemaName, compiled)
	a.metrics.observe(schemaName, executed, err != nil, time.Since(start).Seconds())
	return executed, err
}
