package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs scenario and compares its planned statement sequence
// against testdata/golden/{scenario.Name}.golden, one statement per line.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's planned statements against
// the golden file for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(strings.Join(result.Planned, "\n")+"\n"))
}
