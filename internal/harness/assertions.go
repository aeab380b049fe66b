package harness

import (
	"fmt"
	"strings"
)

// EvaluateExpectations checks result against expect and returns one
// message per failed expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []string

	if expect.Steps != nil && !equalStrings(result.Steps, expect.Steps) {
		errs = append(errs, fmt.Sprintf("steps: expected [%s], got [%s]",
			strings.Join(expect.Steps, ", "), strings.Join(result.Steps, ", ")))
	}

	if expect.Safety != "" && result.Safety != expect.Safety {
		errs = append(errs, fmt.Sprintf("safety: expected %s, got %s", expect.Safety, result.Safety))
	}

	if result.Gate != expect.Gate {
		errs = append(errs, fmt.Sprintf("gate: expected %s, got %s", orNone(expect.Gate), orNone(result.Gate)))
	}

	if missing, ok := containsInOrder(result.Planned, expect.StatementsContain); !ok {
		errs = append(errs, fmt.Sprintf("statements: %q not found in order", missing))
	}

	if expect.Status != "" && result.Status != expect.Status {
		errs = append(errs, fmt.Sprintf("status: expected %s, got %s", expect.Status, orNone(result.Status)))
	}

	if expect.FailedStep != 0 && result.FailedStep != expect.FailedStep {
		errs = append(errs, fmt.Sprintf("failed step: expected %d, got %d", expect.FailedStep, result.FailedStep))
	}
	return errs
}

// containsInOrder reports whether every want appears in got in order,
// returning the first one that does not.
func containsInOrder(got, want []string) (string, bool) {
	i := 0
	for _, w := range want {
		for i < len(got) && got[i] != w {
			i++
		}
		if i == len(got) {
			return w, false
		}
		i++
	}
	return "", true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
