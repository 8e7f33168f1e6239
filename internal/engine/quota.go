package engine

import "fmt"

// DefaultMaxAttempts is the default number of write attempts per mutation.
// A value of 1 disables conflict retries entirely.
const DefaultMaxAttempts = 3

// AttemptBudget tracks write attempts for one mutation and enforces the limit.
//
// Each Apply call gets its own budget. Only CAS conflicts consume further
// attempts; validation failures and store errors end the mutation at once.
type AttemptBudget struct {
	maxAttempts int
	current     int
}

// NewAttemptBudget creates a budget allowing maxAttempts writes.
// Values below 1 are treated as 1.
func NewAttemptBudget(maxAttempts int) *AttemptBudget {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AttemptBudget{maxAttempts: maxAttempts}
}

// Check consumes one attempt.
// Returns *AttemptsExceededError once the budget is spent.
func (b *AttemptBudget) Check() error {
	b.current++
	if b.current > b.maxAttempts {
		return &AttemptsExceededError{Attempts: b.current - 1, Limit: b.maxAttempts}
	}
	return nil
}

// Current returns the number of attempts consumed so far.
func (b *AttemptBudget) Current() int {
	return b.current
}

// Remaining returns the number of attempts left.
func (b *AttemptBudget) Remaining() int {
	if b.current >= b.maxAttempts {
		return 0
	}
	return b.maxAttempts - b.current
}

// AttemptsExceededError reports that every allowed write attempt conflicted.
type AttemptsExceededError struct {
	Attempts int
	Limit    int
}

func (e *AttemptsExceededError) Error() string {
	return fmt.Sprintf("gave up after %d conflicting write attempts (limit %d)", e.Attempts, e.Limit)
}
