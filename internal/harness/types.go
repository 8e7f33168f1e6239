package harness

import (
	"fmt"

	"github.com/roach88/ledger/internal/ledger"
)

// Outcome labels for steps that succeeded.
const OutcomeApplied = "applied"

// StepOutcome records what one step did.
type StepOutcome struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	// Outcome is "applied" or the ledger error code of a failed step.
	Outcome  string   `json:"outcome"`
	Warnings []string `json:"warnings,omitempty"`
	Attempts int      `json:"attempts,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step met its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Steps has one entry per scenario step, in order.
	Steps []StepOutcome `json:"steps"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the ledger as stored after the last step.
	Document *ledger.Document `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
