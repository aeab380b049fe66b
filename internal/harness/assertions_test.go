package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateExpectations(t *testing.T) {
	result := &Result{
		Steps:      []string{"RenameField", "AddField"},
		Safety:     "requires_confirmation",
		Planned:    []string{"a;", "b;", "c;"},
		Status:     "failed",
		FailedStep: 2,
	}

	tests := []struct {
		name   string
		expect Expect
		want   int
	}{
		{"empty expectations", Expect{}, 0},
		{"all hold", Expect{
			Steps:             []string{"RenameField", "AddField"},
			Safety:            "requires_confirmation",
			StatementsContain: []string{"a;", "c;"},
			Status:            "failed",
			FailedStep:        2,
		}, 0},
		{"wrong step order", Expect{Steps: []string{"AddField", "RenameField"}}, 1},
		{"empty steps list", Expect{Steps: []string{}}, 1},
		{"wrong safety", Expect{Safety: "safe"}, 1},
		{"unexpected gate", Expect{Gate: "CONFIRMATION_REQUIRED"}, 1},
		{"statements out of order", Expect{StatementsContain: []string{"c;", "a;"}}, 1},
		{"wrong status and step", Expect{Status: "applied", FailedStep: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, EvaluateExpectations(result, tt.expect), tt.want)
		})
	}
}

func TestContainsInOrder(t *testing.T) {
	got := []string{"x", "y", "z"}

	_, ok := containsInOrder(got, nil)
	assert.True(t, ok)

	_, ok = containsInOrder(got, []string{"x", "z"})
	assert.True(t, ok)

	missing, ok := containsInOrder(got, []string{"y", "x"})
	assert.False(t, ok)
	assert.Equal(t, "x", missing)
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
