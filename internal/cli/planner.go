package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/schemaforge/internal/migration"
	"github.com/roach88/schemaforge/internal/schema"
	"github.com/roach88/schemaforge/internal/store"
	"github.com/roach88/schemaforge/internal/surql"
)

// PlanOptions selects schemas and rename hints for planning.
type PlanOptions struct {
	Schema  string   // only this schema; empty means all
	Renames []string // "old:new" hints, require Schema
}

// schemaPlan is the migration planned for one compiled schema.
type schemaPlan struct {
	Target     *schema.Definition // compiled schema, carrying the stored ID
	Create     bool               // no snapshot was stored
	Plan       *migration.Plan
	Statements []string
}

// StepView is the JSON form of a planned step.
type StepView struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Safety      string `json:"safety"`
}

// PlanView is the JSON form of a planned migration.
type PlanView struct {
	Schema      string     `json:"schema"`
	MigrationID string     `json:"migration_id"`
	Create      bool       `json:"create"`
	Safety      string     `json:"safety"`
	Steps       []StepView `json:"steps"`
	Statements  []string   `json:"statements"`
}

func (p schemaPlan) view() PlanView {
	steps := p.Plan.Steps()
	views := make([]StepView, len(steps))
	for i, s := range steps {
		views[i] = StepView{Kind: s.Kind(), Description: s.String(), Safety: s.Safety().String()}
	}
	stmts := p.Statements
	if stmts == nil {
		stmts = []string{}
	}
	return PlanView{
		Schema:      p.Target.Name.String(),
		MigrationID: p.Plan.ID().String(),
		Create:      p.Create,
		Safety:      p.Plan.OverallSafety().String(),
		Steps:       views,
		Statements:  stmts,
	}
}

// buildPlans diffs each compiled schema against its stored snapshot.
// Snapshots are read sequentially; diffing and lowering run concurrently.
// Results keep the order of defs.
func buildPlans(ctx context.Context, st *store.Store, defs []*schema.Definition, opts PlanOptions) ([]schemaPlan, error) {
	selected, err := selectSchemas(defs, opts.Schema)
	if err != nil {
		return nil, err
	}
	if len(opts.Renames) > 0 && opts.Schema == "" {
		return nil, NewExitError(ExitCommandError, "--rename requires --schema")
	}
	renames := make([]migration.Rename, 0, len(opts.Renames))
	for _, r := range opts.Renames {
		rename, err := migration.ParseRename(r)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid rename", err)
		}
		renames = append(renames, rename)
	}

	stored := make([]*schema.Definition, len(selected))
	for i, def := range selected {
		snap, err := st.ReadSnapshot(ctx, def.Name.String())
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return nil, fmt.Errorf("read snapshot %s: %w", def.Name, err)
		default:
			stored[i] = snap.Definition
		}
	}

	plans := make([]schemaPlan, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, def := range selected {
		i, def := i, def
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := planOne(def, stored[i], renames)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func planOne(def, stored *schema.Definition, renames []migration.Rename) (schemaPlan, error) {
	p := schemaPlan{Target: def}
	if stored == nil {
		p.Create = true
		p.Plan = migration.CreateNew(def)
	} else {
		p.Target = def.WithID(stored.ID)
		p.Plan = migration.DiffWithRenames(stored, p.Target, renames)
	}

	stmts, err := surql.PlanStatements(p.Plan)
	if err != nil {
		return schemaPlan{}, fmt.Errorf("compile %s: %w", def.Name, err)
	}
	p.Statements = stmts
	return p, nil
}

func selectSchemas(defs []*schema.Definition, name string) ([]*schema.Definition, error) {
	if name == "" {
		return defs, nil
	}
	for _, def := range defs {
		if def.Name.String() == name {
			return []*schema.Definition{def}, nil
		}
	}
	return nil, NewExitError(ExitCommandError, fmt.Sprintf("schema %s not found", name))
}

// loadForCommand loads the schemas directory, failing on any load or
// validation error.
func loadForCommand(dir string, f *OutputFormatter) (*LoadResult, error) {
	result, errs := LoadSchemas(dir, LoadModeCollectAll)
	if len(errs) > 0 {
		first := errs[0]
		code := ErrCodeGeneric
		var le *LoadError
		if errors.As(first, &le) {
			code = le.Code
		}
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		_ = f.Error(code, first.Error(), messages)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: %d error(s) loading schemas", code, len(errs)))
	}
	for _, w := range result.Warnings {
		f.VerboseLog("warning: %s", w.Message)
	}
	return result, nil
}
