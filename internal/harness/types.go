package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Steps are the plan's step kinds in order.
	Steps []string `json:"steps"`

	// Safety is the plan's overall safety tier.
	Safety string `json:"safety"`

	// Planned is the full lowered statement sequence of the plan.
	Planned []string `json:"planned"`

	// Executed are the statements the executor accepted.
	Executed []string `json:"executed"`

	// Gate is the MigrationError code returned by the gate, if any. A
	// rejected plan is not applied.
	Gate string `json:"gate,omitempty"`

	// Status and FailedStep come from the recorded history entry. Status
	// is empty when nothing was applied.
	Status     string `json:"status,omitempty"`
	FailedStep int    `json:"failed_step,omitempty"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Steps:    []string{},
		Planned:  []string{},
		Executed: []string{},
		Errors:   []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
