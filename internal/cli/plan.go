package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// PlanCommandOptions holds flags for the plan command.
type PlanCommandOptions struct {
	*RootOptions
	PlanOptions
	Statements bool
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanCommandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan [schemas-dir]",
		Short: "Show the migration plan for each schema",
		Long: `Diff every compiled schema against its stored snapshot and print the
migration plan with the safety tier of each step. Schemas without a
snapshot are planned for creation. Nothing is applied.

Rename hints tell the planner that a field was renamed rather than
removed and re-added; they apply to the schema selected with --schema.

Examples:
  schemaforge plan
  schemaforge plan --schema Contact --rename name:full_name
  schemaforge plan --statements --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "plan only this schema")
	cmd.Flags().StringArrayVar(&opts.Renames, "rename", nil, "rename hint old:new (repeatable)")
	cmd.Flags().BoolVar(&opts.Statements, "statements", false, "print the SurrealQL statements of each plan")

	return cmd
}

func runPlan(opts *PlanCommandOptions, args []string, cmd *cobra.Command) error {
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

	plans, err := buildPlans(cmd.Context(), st, result.Schemas, opts.PlanOptions)
	if err != nil {
		return err
	}

	views := make([]PlanView, len(plans))
	for i, p := range plans {
		views[i] = p.view()
	}

	return f.Success(views, func(w io.Writer) {
		for _, p := range plans {
			writePlanText(w, p, opts.Statements)
		}
	})
}

func writePlanText(w io.Writer, p schemaPlan, withStatements bool) {
	if p.Plan.IsEmpty() {
		fmt.Fprintf(w, "%s: up to date\n", p.Target.Name)
		return
	}
	fmt.Fprint(w, p.Plan.String())
	if withStatements {
		for _, stmt := range p.Statements {
			fmt.Fprintf(w, "    %s\n", stmt)
		}
	}
}
