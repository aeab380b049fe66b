package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/apply"
	"github.com/roach88/schemaforge/internal/migration"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	PlanOptions
	Force       bool   // allow destructive steps
	Yes         bool   // confirm steps that require confirmation
	DryRun      bool   // record statements without touching the store
	MetricsFile string // write Prometheus text metrics here
}

// AppliedView is the JSON form of one schema's apply outcome.
type AppliedView struct {
	PlanView
	Status     string   `json:"status"` // applied | failed | up_to_date | dry_run
	FailedStep int      `json:"failed_step,omitempty"`
	Error      string   `json:"error,omitempty"`
	Executed   []string `json:"executed"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply [schemas-dir]",
		Short: "Apply migration plans",
		Long: `Plan every schema as the plan command does, gate each plan on its
safety tier, then execute the SurrealQL statements in order. Executed
statements are appended to the statement journal, the outcome is recorded
in the migration history and, on success, the schema snapshot is replaced.

Every plan is gated before any is applied. Destructive steps need --force
(or migrate.allow_destructive). Steps that rewrite data need --yes unless
migrate.require_confirmation is false.

A failing statement stops its schema's migration; statements already
executed are not rolled back.

Exit codes:
  0 - All plans applied (or nothing to do)
  1 - Gate refused a plan or a statement failed
  2 - Command error

Examples:
  schemaforge apply --yes
  schemaforge apply --schema Contact --rename name:full_name --yes
  schemaforge apply --force --dry-run`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "apply only this schema")
	cmd.Flags().StringArrayVar(&opts.Renames, "rename", nil, "rename hint old:new (repeatable)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "allow destructive steps")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm steps that rewrite existing data")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show statements without executing them")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write apply metrics in Prometheus text format")

	return cmd
}

func runApply(opts *ApplyOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	result, err := loadForCommand(schemasDir(args, cfg.Schemas.Dir), f)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	plans, err := buildPlans(ctx, st, result.Schemas, opts.PlanOptions)
	if err != nil {
		return err
	}

	confirm := migration.Confirmation{
		AllowDestructive: opts.Force || cfg.Migrate.AllowDestructive,
		AllowRisky:       opts.Yes || opts.Force || !cfg.Migrate.RequireConfirmation,
	}
	for _, p := range plans {
		if p.Plan.IsEmpty() {
			continue
		}
		if err := migration.Gate(p.Plan, confirm); err != nil {
			var me *migration.MigrationError
			code := ErrCodeGateRefused
			if !errors.As(err, &me) {
				code = ErrCodeGeneric
			}
			msg := fmt.Sprintf("%s: %v", p.Target.Name, err)
			_ = f.Error(code, msg, p.view())
			return WrapExitError(ExitFailure, "plan refused for "+p.Target.Name.String(), err)
		}
	}

	reg := prometheus.NewRegistry()
	metrics := apply.NewMetrics(reg)

	views := make([]AppliedView, 0, len(plans))
	var failed error
	for _, p := range plans {
		view := AppliedView{PlanView: p.view(), Executed: []string{}}
		if p.Plan.IsEmpty() {
			view.Status = "up_to_date"
			views = append(views, view)
			continue
		}

		var exec apply.Executor
		recorder := &apply.Recorder{}
		options := []apply.Option{apply.WithLogger(slog.Default()), apply.WithMetrics(metrics)}
		if opts.DryRun {
			exec = recorder
		} else {
			journal := st.JournalFor(p.Target.Name.String())
			exec = apply.ExecutorFunc(func(ctx context.Context, stmt string) error {
				if err := journal.Execute(ctx, stmt); err != nil {
					return err
				}
				return recorder.Execute(ctx, stmt)
			})
			options = append(options, apply.WithHistory(st))
		}

		entry, err := apply.New(exec, options...).Apply(ctx, p.Plan, p.Target)
		view.Executed = recorder.Statements()
		switch {
		case err != nil:
			view.Status = "failed"
			view.FailedStep = entry.FailedStep
			view.Error = err.Error()
			failed = err
		case opts.DryRun:
			view.Status = "dry_run"
		default:
			view.Status = "applied"
		}
		views = append(views, view)
		if failed != nil {
			break
		}
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if failed != nil {
		_ = f.Error(ErrCodeApplyFailed, failed.Error(), views)
		return WrapExitError(ExitFailure, "apply failed", failed)
	}

	return f.Success(views, func(w io.Writer) {
		for _, v := range views {
			switch v.Status {
			case "up_to_date":
				fmt.Fprintf(w, "%s: up to date\n", v.Schema)
			case "dry_run":
				fmt.Fprintf(w, "%s: %d step(s) [%s], dry run\n", v.Schema, len(v.Steps), v.Safety)
				for _, stmt := range v.Executed {
					fmt.Fprintf(w, "    %s\n", stmt)
				}
			default:
				fmt.Fprintf(w, "✓ %s: applied %d step(s), %d statement(s) [%s]\n",
					v.Schema, len(v.Steps), len(v.Executed), v.MigrationID)
			}
		}
	})
}
