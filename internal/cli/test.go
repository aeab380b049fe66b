package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run migration scenarios",
		Long: `Run migration scenarios with the harness. Each scenario plans, gates
and applies a migration against a fresh in-memory store and checks the
expected steps, safety tier, gate outcome and apply status.

A scenario with a golden file at <scenarios-dir>/golden/<file>.golden must
also lower to exactly the statements in that file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  schemaforge test ./scenarios
  schemaforge test ./scenarios --filter "rename*"
  schemaforge test ./scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return err
	}

	f := opts.formatter(cmd)
	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := runScenario(cmd, file, opts.Update)
		if !f.IsJSON() {
			writeScenarioText(f.Writer, sr, opts.Update)
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	var failed error
	if result.Failed > 0 {
		failed = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if f.IsJSON() {
		if failed != nil {
			if err := f.Error("E_TEST_FAILED", failed.Error(), result); err != nil {
				return err
			}
			return failed
		}
		return f.Success(result, nil)
	}

	w := f.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}
	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failed != nil {
		return failed
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

// findScenarioFiles lists the .yaml/.yml files directly in dir whose base
// name, without extension, matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, "scenarios directory not found: "+dir)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read scenarios directory", err)
	}

	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "invalid filter pattern", err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// runScenario loads, runs and checks one scenario file. With update the
// golden file is rewritten instead of compared.
func runScenario(cmd *cobra.Command, file string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file)}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(cmd.Context(), scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = append(sr.Errors, result.Errors...)

	golden := goldenFilePath(file)
	got := strings.Join(result.Planned, "\n") + "\n"
	if update {
		if err := writeGolden(golden, got); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
		}
	} else if msg := compareGolden(golden, got); msg != "" {
		sr.Errors = append(sr.Errors, msg)
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

func writeGolden(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareGolden returns a failure message, or "" when the golden file
// matches or does not exist.
func compareGolden(path, got string) string {
	want, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return ""
	case err != nil:
		return fmt.Sprintf("failed to read golden file: %v", err)
	case string(want) != got:
		return "statements do not match golden file (run with --update to regenerate)"
	}
	return ""
}

func writeScenarioText(w io.Writer, sr ScenarioResult, updated bool) {
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if updated {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", sr.Name)
}

// goldenFilePath is <dir>/golden/<name>.golden for <dir>/<name>.yaml.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}
