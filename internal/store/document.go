package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Read when no document exists at the path.
	ErrNotFound = errors.New("document not found")

	// ErrRevisionConflict matches every *ConflictError via errors.Is.
	ErrRevisionConflict = errors.New("revision conflict")
)

// Blob is a stored document and the revision it was read at.
type Blob struct {
	Content  []byte
	Revision string
}

// DocumentStore is a compare-and-swap blob store.
type DocumentStore interface {
	// Read returns the current content and revision at path.
	// Returns ErrNotFound (possibly wrapped) if nothing is stored there.
	Read(ctx context.Context, path string) (Blob, error)

	// Write replaces the content at path if its current revision equals
	// expectedRevision, and returns the new revision. An empty
	// expectedRevision creates the document and fails if it already exists.
	// A stale revision fails with *ConflictError.
	Write(ctx context.Context, path string, content []byte, expectedRevision string) (string, error)
}

// ConflictError reports a write rejected because the expected revision was stale.
type ConflictError struct {
	Path             string
	ExpectedRevision string
	// CurrentRevision is the stored revision, when the backend can report it.
	CurrentRevision string
}

func (e *ConflictError) Error() string {
	if e.CurrentRevision != "" {
		return fmt.Sprintf("revision conflict on %s: expected %q, current %q", e.Path, e.ExpectedRevision, e.CurrentRevision)
	}
	return fmt.Sprintf("revision conflict on %s: expected %q", e.Path, e.ExpectedRevision)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrRevisionConflict
}

type commitMessageKey struct{}

// WithCommitMessage attaches a description of the write to ctx. Backends
// that keep history (SQLite, GitHub) record it alongside the revision.
func WithCommitMessage(ctx context.Context, message string) context.Context {
	return context.WithValue(ctx, commitMessageKey{}, message)
}

// CommitMessage returns the message attached by WithCommitMessage, or def.
func CommitMessage(ctx context.Context, def string) string {
	if msg, ok := ctx.Value(commitMessageKey{}).(string); ok && msg != "" {
		return msg
	}
	return def
}
