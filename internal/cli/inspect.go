package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/compiler"
)

// SchemaSummary describes one compiled schema.
type SchemaSummary struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Version     uint32 `json:"version"`
	Fields      int    `json:"fields"`
	System      bool   `json:"system,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Definition  string `json:"definition,omitempty"`
}

// InspectResult is the output of the inspect command.
type InspectResult struct {
	Files    int                     `json:"files"`
	Schemas  []SchemaSummary         `json:"schemas"`
	Warnings []compiler.CycleWarning `json:"warnings,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [schemas-dir]",
		Short: "Compile and validate schema definitions",
		Long: `Compile every CUE file in the schemas directory and validate the
resulting schema set: unique names and IDs, known relation targets,
display fields and default values. Cycles of required relations are
reported as warnings.

Exit codes:
  0 - All schemas valid
  1 - Validation errors found
  2 - Command error (directory not found, no CUE files, etc.)

Examples:
  schemaforge inspect
  schemaforge inspect ./schemas --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, args []string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)
	dir := schemasDir(args, cfg.Schemas.Dir)
	f.VerboseLog("Inspecting schemas in %s", dir)

	result, errs := LoadSchemas(dir, LoadModeCollectAll)
	if result == nil {
		// Directory-level failure: nothing was compiled.
		le := errs[0].(*LoadError)
		_ = f.Error(le.Code, le.Message, nil)
		return WrapExitError(ExitCommandError, le.Code, errs[0])
	}
	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		if f.IsJSON() {
			_ = f.Error(errs[0].(*LoadError).Code, fmt.Sprintf("%d error(s) found", len(errs)), messages)
		} else {
			w := cmd.OutOrStdout()
			for _, m := range messages {
				fmt.Fprintf(w, "✗ %s\n", m)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	out := InspectResult{Files: result.FileCount, Schemas: []SchemaSummary{}, Warnings: result.Warnings}
	for _, def := range result.Schemas {
		fp, err := def.Fingerprint()
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", def.Name, err)
		}
		summary := SchemaSummary{
			Name:        def.Name.String(),
			ID:          def.ID.String(),
			Version:     def.Version().Uint32(),
			Fields:      len(def.Fields),
			System:      def.IsSystem(),
			Fingerprint: fp,
		}
		if opts.Verbose {
			summary.Definition = def.String()
		}
		out.Schemas = append(out.Schemas, summary)
	}

	return f.Success(out, func(w io.Writer) {
		for _, s := range out.Schemas {
			fmt.Fprintf(w, "%s v%d (%d fields) %s\n", s.Name, s.Version, s.Fields, s.Fingerprint)
			if s.Definition != "" {
				fmt.Fprintln(w, s.Definition)
			}
		}
		for _, warn := range out.Warnings {
			fmt.Fprintf(w, "⚠ %s\n", warn.Message)
		}
		fmt.Fprintf(w, "✓ %d schema(s) valid in %d file(s)\n", len(out.Schemas), out.Files)
	})
}
