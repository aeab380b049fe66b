package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/store"
)

// NewStatementsCommand creates the statements command.
func NewStatementsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements [schema]",
		Short: "Show the statement journal",
		Long: `Show the SurrealQL statements executed by apply, in execution order,
for one schema or for all of them. Use "plan --statements" to see the
statements a pending plan would execute.

Examples:
  schemaforge statements
  schemaforge statements Contact`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatements(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runStatements(opts *RootOptions, args []string, cmd *cobra.Command) error {
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
	entries, err := st.ReadJournal(cmd.Context(), name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read statement journal", err)
	}

	return opts.formatter(cmd).Success(entries, func(w io.Writer) {
		writeJournal(w, entries)
	})
}

func writeJournal(w io.Writer, entries []store.JournalEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No statements executed.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%6d  %-16s %s\n", e.Seq, e.SchemaName, e.Statement)
	}
}
