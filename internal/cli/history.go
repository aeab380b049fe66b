package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// HistoryView is the JSON form of a history entry.
type HistoryView struct {
	Seq         int64    `json:"seq"`
	MigrationID string   `json:"migration_id"`
	Schema      string   `json:"schema"`
	Status      string   `json:"status"`
	Safety      string   `json:"safety"`
	Checksum    string   `json:"checksum"`
	Steps       []string `json:"steps"`
	FailedStep  int      `json:"failed_step,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [schema]",
		Short: "List applied and failed migrations",
		Long: `List the migration history recorded by apply, oldest first, for one
schema or for all of them.

Examples:
  schemaforge history
  schemaforge history Contact --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runHistory(opts *RootOptions, args []string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	entries, err := st.ListHistory(cmd.Context(), name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	views := make([]HistoryView, len(entries))
	for i, e := range entries {
		views[i] = HistoryView{
			Seq:         e.Seq,
			MigrationID: e.ID.String(),
			Schema:      e.SchemaName,
			Status:      string(e.Status),
			Safety:      e.Safety.String(),
			Checksum:    e.Checksum,
			Steps:       e.Steps,
			FailedStep:  e.FailedStep,
			Error:       e.Error,
		}
	}

	return opts.formatter(cmd).Success(views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "No migrations recorded.")
			return
		}
		for _, v := range views {
			fmt.Fprintf(w, "#%d %s %s %s [%s] %d step(s)\n",
				v.Seq, v.Schema, v.MigrationID, v.Status, v.Safety, len(v.Steps))
			if v.Status == "failed" {
				fmt.Fprintf(w, "    failed at step %d: %s\n", v.FailedStep, v.Error)
			}
		}
	})
}
