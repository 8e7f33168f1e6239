package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error represents a ledger operation failure.
//
// Codes:
//   - Validation: malformed or conflicting input, nothing written
//   - NotFound: a read required an entity that does not exist
//   - Conflict: the store rejected a write because the revision was stale
//   - StoreUnreachable: the store could not be read or written
//   - CorruptDocument: the stored blob is not a ledger document
//   - VerifyFailed: the post-write read did not observe the written revision
//   - NotLoaded: a mutation was attempted without a fetched document
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes ledger errors.
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeStoreUnreachable ErrorCode = "STORE_UNREACHABLE"
	ErrCodeCorruptDocument  ErrorCode = "CORRUPT_DOCUMENT"
	ErrCodeVerifyFailed     ErrorCode = "VERIFY_FAILED"
	ErrCodeNotLoaded        ErrorCode = "NOT_LOADED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + e.Details[k]
		}
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsConflict reports whether err is a revision conflict.
func IsConflict(err error) bool { return CodeOf(err) == ErrCodeConflict }

// IsFatal reports whether err leaves the caller needing a fresh Fetch:
// conflicts, store failures, corrupt documents and failed verification.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeConflict, ErrCodeStoreUnreachable, ErrCodeCorruptDocument, ErrCodeVerifyFailed:
		return true
	}
	return false
}

// NewValidationError creates an Error for rejected input.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates an Error for a missing entity.
func NewNotFoundError(kind, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", kind, id),
		Details: map[string]string{"kind": kind, "id": id},
	}
}

// WrapError creates an Error with the given code around a cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
