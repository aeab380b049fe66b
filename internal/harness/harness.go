package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/schemaforge/internal/apply"
	"github.com/roach88/schemaforge/internal/compiler"
	"github.com/roach88/schemaforge/internal/migration"
	"github.com/roach88/schemaforge/internal/schema"
	"github.com/roach88/schemaforge/internal/store"
	"github.com/roach88/schemaforge/internal/surql"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store. Execution flow:
//  1. Compile the old and new sources and select the schema
//  2. Plan: CreateNew without an old source, DiffWithRenames otherwise
//  3. Gate the plan when the scenario confirms
//  4. Apply through a recording executor with history into the store
//  5. Evaluate expectations
//
// An error is returned only when the scenario cannot be run at all; failed
// applies and failed expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	newDef, err := loadSchema("new.cue", scenario.New, scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("new schema: %w", err)
	}

	var plan *migration.Plan
	if scenario.Old == "" {
		plan = migration.CreateNew(newDef)
	} else {
		oldDef, err := loadSchema("old.cue", scenario.Old, newDef.Name.String())
		if err != nil {
			return nil, fmt.Errorf("old schema: %w", err)
		}
		newDef = newDef.WithID(oldDef.ID)

		renames := make([]migration.Rename, 0, len(scenario.Renames))
		for _, r := range scenario.Renames {
			rename, err := migration.ParseRename(r)
			if err != nil {
				return nil, err
			}
			renames = append(renames, rename)
		}
		plan = migration.DiffWithRenames(oldDef, newDef, renames)
	}

	result := NewResult()
	for _, step := range plan.Steps() {
		result.Steps = append(result.Steps, step.Kind())
	}
	result.Safety = plan.OverallSafety().String()

	planned, err := surql.PlanStatements(plan)
	if err != nil {
		return nil, fmt.Errorf("compile plan: %w", err)
	}
	result.Planned = append(result.Planned, planned...)

	if scenario.Confirm != nil {
		if err := migration.Gate(plan, scenario.Confirm.Confirmation()); err != nil {
			var me *migration.MigrationError
			if !errors.As(err, &me) {
				return nil, err
			}
			result.Gate = string(me.Code)
		}
	}

	if result.Gate == "" && !plan.IsEmpty() {
		if err := applyPlan(ctx, scenario, plan, newDef, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

func applyPlan(ctx context.Context, scenario *Scenario, plan *migration.Plan, target *schema.Definition, result *Result) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	recorder := &apply.Recorder{}
	if scenario.FailOn != "" {
		recorder.FailOn = func(stmt string) error {
			if strings.Contains(stmt, scenario.FailOn) {
				return fmt.Errorf("executor rejected %q", stmt)
			}
			return nil
		}
	}

	applier := apply.New(recorder,
		apply.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		apply.WithHistory(st),
	)
	entry, applyErr := applier.Apply(ctx, plan, target)
	if applyErr != nil {
		if _, ok := apply.AsStepError(applyErr); !ok {
			return fmt.Errorf("apply: %w", applyErr)
		}
	}

	result.Executed = append(result.Executed, recorder.Statements()...)
	result.Status = string(entry.Status)
	result.FailedStep = entry.FailedStep
	return nil
}

// loadSchema compiles src and returns the schema called name, or the only
// schema when name is empty.
func loadSchema(filename, src, name string) (*schema.Definition, error) {
	defs, err := compiler.CompileSource(filename, []byte(src))
	if err != nil {
		return nil, err
	}
	if name == "" {
		if len(defs) != 1 {
			return nil, fmt.Errorf("expected exactly one schema, found %d", len(defs))
		}
		return defs[0], nil
	}
	for _, def := range defs {
		if def.Name.String() == name {
			return def, nil
		}
	}
	return nil, fmt.Errorf("schema %s not found", name)
}
