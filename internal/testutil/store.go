package testutil

import (
	"context"
	"sync"

	"github.com/roach88/ledger/internal/store"
)

// FaultyStore wraps a DocumentStore and injects the failures the ledger
// engine has to survive: writers racing in between a fetch and a write,
// unreachable stores, and reads that disagree with the last write.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FaultyStore struct {
	inner store.DocumentStore

	mu            sync.Mutex
	beforeWrite   []func()
	readErr       error
	writeErr      error
	forgedRev     string
	reads, writes int
}

// NewFaultyStore wraps inner. With no faults configured it behaves exactly like inner.
func NewFaultyStore(inner store.DocumentStore) *FaultyStore {
	return &FaultyStore{inner: inner}
}

// BeforeNextWrite queues fn to run right before one upcoming Write reaches
// the wrapped store. Queued functions run one per Write, in order. fn
// typically writes through the wrapped store directly to simulate a
// concurrent writer.
func (s *FaultyStore) BeforeNextWrite(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeWrite = append(s.beforeWrite, fn)
}

// FailReads makes every Read return err (nil restores normal reads).
func (s *FaultyStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes every Write return err (nil restores normal writes).
func (s *FaultyStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// ForgeReadRevision makes Read report rev instead of the stored revision.
func (s *FaultyStore) ForgeReadRevision(rev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgedRev = rev
}

// Counts returns the number of Read and Write calls seen.
func (s *FaultyStore) Counts() (reads, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.writes
}

func (s *FaultyStore) Read(ctx context.Context, path string) (store.Blob, error) {
	s.mu.Lock()
	s.reads++
	readErr, forged := s.readErr, s.forgedRev
	s.mu.Unlock()

	if readErr != nil {
		return store.Blob{}, readErr
	}
	b, err := s.inner.Read(ctx, path)
	if err == nil && forged != "" {
		b.Revision = forged
	}
	return b, err
}

func (s *FaultyStore) Write(ctx context.Context, path string, content []byte, expectedRevision string) (string, error) {
	s.mu.Lock()
	s.writes++
	writeErr := s.writeErr
	var hook func()
	if len(s.beforeWrite) > 0 {
		hook = s.beforeWrite[0]
		s.beforeWrite = s.beforeWrite[1:]
	}
	s.mu.Unlock()

	if writeErr != nil {
		return "", writeErr
	}
	if hook != nil {
		hook()
	}
	return s.inner.Write(ctx, path, content, expectedRevision)
}
