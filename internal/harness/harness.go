package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/ledger/internal/engine"
	"github.com/roach88/ledger/internal/ledger"
	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/testutil"
)

// Harness runs one scenario against a fresh in-memory ledger.
type Harness struct {
	engine *engine.Engine
	// rival writes straight to the store, as another process would.
	rival *engine.Engine
	state *engine.State
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory store with a deterministic clock
// shared by both writers, so dates are reproducible.
//
// Execution flow:
// 1. Initialize and fetch an empty ledger
// 2. For each step, let rival writers go first, then apply the step
// 3. Check each step's outcome against its expect clause
// 4. Fetch the final ledger and evaluate assertions
//
// An error is returned only if the harness itself cannot run; scenario
// failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	mem := store.NewMemoryStore()
	clock := testutil.NewDeterministicClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	opts := []engine.Option{engine.WithClock(clock), engine.WithLogger(logger)}
	if scenario.MaxAttempts > 0 {
		opts = append(opts, engine.WithMaxAttempts(scenario.MaxAttempts))
	}

	h := &Harness{
		engine: engine.New(mem, opts...),
		rival:  engine.New(mem, engine.WithClock(clock), engine.WithLogger(logger)),
	}

	ctx := context.Background()
	if _, err := h.engine.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	st, err := h.engine.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger: %w", err)
	}
	h.state = st

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	final, err := h.engine.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch final ledger: %w", err)
	}
	result.Document = final.Document

	for _, msg := range EvaluateAssertions(final.Document, scenario.Assertions) {
		result.AddError("%s", msg)
	}

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	for j, rival := range step.Rival {
		if err := h.applyRival(ctx, rival); err != nil {
			result.AddError("steps[%d].rival[%d] (%s): %v", index, j, rival.Op, err)
		}
	}

	m, err := step.Mutation()
	if err != nil {
		return err
	}

	outcome := StepOutcome{Index: index, Op: step.Op, Outcome: OutcomeApplied}
	next, res, applyErr := h.engine.Apply(ctx, h.state, m)
	if applyErr != nil {
		outcome.Outcome = string(ledger.CodeOf(applyErr))
		if outcome.Outcome == "" {
			return applyErr
		}
		// Like any caller after a failure, start again from a fresh fetch.
		if h.state, err = h.engine.Fetch(ctx); err != nil {
			return fmt.Errorf("refetch after %s: %w", outcome.Outcome, err)
		}
	} else {
		h.state = next
		outcome.Attempts = res.Attempts
		for _, w := range res.Warnings {
			outcome.Warnings = append(outcome.Warnings, string(w.Code))
		}
	}
	result.Steps = append(result.Steps, outcome)

	checkExpect(index, step, outcome, applyErr, result)
	return nil
}

func (h *Harness) applyRival(ctx context.Context, step Step) error {
	m, err := step.Mutation()
	if err != nil {
		return err
	}
	st, err := h.rival.Fetch(ctx)
	if err != nil {
		return err
	}
	_, _, err = h.rival.Apply(ctx, st, m)
	return err
}

// checkExpect compares a step outcome with the step's expect clause.
func checkExpect(index int, step Step, outcome StepOutcome, applyErr error, result *Result) {
	label := fmt.Sprintf("steps[%d] (%s)", index, step.Op)

	if step.Expect == nil {
		if applyErr != nil {
			result.AddError("%s: unexpected error: %v", label, applyErr)
		}
		return
	}

	want := step.Expect
	switch {
	case want.Error == "" && applyErr != nil:
		result.AddError("%s: unexpected error: %v", label, applyErr)
		return
	case want.Error != "" && applyErr == nil:
		result.AddError("%s: expected error %s, step was applied", label, want.Error)
		return
	case want.Error != "" && outcome.Outcome != want.Error:
		result.AddError("%s: expected error %s, got %s: %v", label, want.Error, outcome.Outcome, applyErr)
		return
	case want.Error != "":
		return
	}

	if !slices.Equal(outcome.Warnings, want.Warnings) {
		result.AddError("%s: expected warnings %v, got %v", label, want.Warnings, outcome.Warnings)
	}
	if want.Attempts > 0 && outcome.Attempts != want.Attempts {
		result.AddError("%s: expected %d attempts, got %d", label, want.Attempts, outcome.Attempts)
	}
}
