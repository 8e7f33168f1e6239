package engine

import (
	"errors"

	"github.com/roach88/ledger/internal/ledger"
	"github.com/roach88/ledger/internal/store"
)

// readError classifies a failed store read.
// A missing document is NotFound; anything else means the store is unreachable.
func readError(path string, err error) *ledger.Error {
	if errors.Is(err, store.ErrNotFound) {
		e := ledger.WrapError(ledger.ErrCodeNotFound, "ledger document does not exist; run init first", err)
		e.Details = map[string]string{"path": path}
		return e
	}
	e := ledger.WrapError(ledger.ErrCodeStoreUnreachable, "failed to read ledger document", err)
	e.Details = map[string]string{"path": path}
	return e
}

// writeError classifies a failed conditional write.
func writeError(path string, err error) *ledger.Error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		e := ledger.WrapError(ledger.ErrCodeConflict, "ledger document was changed by another writer", err)
		e.Details = map[string]string{"path": path, "expected_revision": conflict.ExpectedRevision}
		if conflict.CurrentRevision != "" {
			e.Details["current_revision"] = conflict.CurrentRevision
		}
		return e
	}
	e := ledger.WrapError(ledger.ErrCodeStoreUnreachable, "failed to write ledger document", err)
	e.Details = map[string]string{"path": path}
	return e
}

// NewVerifyError creates an Error for a post-write revision mismatch.
func NewVerifyError(path, written, observed string) *ledger.Error {
	return &ledger.Error{
		Code:    ledger.ErrCodeVerifyFailed,
		Message: "post-write revision check failed; the write may not be durable",
		Details: map[string]string{
			"path":              path,
			"written_revision":  written,
			"observed_revision": observed,
		},
	}
}

// IsAttemptsExceeded reports whether err ended a mutation after exhausting its
// conflict retries. Uses errors.As to handle wrapped errors.
func IsAttemptsExceeded(err error) bool {
	var ae *AttemptsExceededError
	return errors.As(err, &ae)
}
