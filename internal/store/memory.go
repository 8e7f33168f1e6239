package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryStore is an in-process DocumentStore.
// Revisions are decimal sequence numbers shared across paths, so tests see
// predictable tokens ("1", "2", ...).
//
// Thread-safety: all methods are safe for concurrent use.
type MemoryStore struct {
	mu   sync.Mutex
	seq  int64
	docs map[string]Blob
	log  []Commit
}

// Commit is one accepted write, as recorded by MemoryStore.
type Commit struct {
	Path     string
	Revision string
	Message  string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Blob)}
}

func (s *MemoryStore) Read(ctx context.Context, path string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.docs[path]
	if !ok {
		return Blob{}, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	return Blob{Content: append([]byte(nil), b.Content...), Revision: b.Revision}, nil
}

func (s *MemoryStore) Write(ctx context.Context, path string, content []byte, expectedRevision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// A missing path has revision "", so create-only writes fall out of the same check.
	current := s.docs[path]
	if current.Revision != expectedRevision {
		return "", &ConflictError{Path: path, ExpectedRevision: expectedRevision, CurrentRevision: current.Revision}
	}

	s.seq++
	rev := strconv.FormatInt(s.seq, 10)
	s.docs[path] = Blob{Content: append([]byte(nil), content...), Revision: rev}
	s.log = append(s.log, Commit{Path: path, Revision: rev, Message: CommitMessage(ctx, "update "+path)})
	return rev, nil
}

// Commits returns the accepted writes in order.
func (s *MemoryStore) Commits() []Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Commit(nil), s.log...)
}
