// Package storetest provides a shared conformance suite for store.DocumentStore
// implementations. Each backend wires this suite to verify the
// compare-and-swap contract the ledger engine relies on.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/store"
)

// TestDocumentStore runs the conformance suite against a DocumentStore.
// newStore must return a fresh, empty store for each sub-test.
func TestDocumentStore(t *testing.T, newStore func(t *testing.T) store.DocumentStore) {
	t.Run("ReadMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Read(context.Background(), "ledger.json")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	t.Run("CreateAndRead", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rev, err := s.Write(ctx, "ledger.json", []byte(`{"a":1}`), "")
		require.NoError(t, err)
		require.NotEmpty(t, rev)

		b, err := s.Read(ctx, "ledger.json")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(b.Content))
		assert.Equal(t, rev, b.Revision)
	})

	t.Run("CreateTwiceConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Write(ctx, "ledger.json", []byte("first"), "")
		require.NoError(t, err)

		_, err = s.Write(ctx, "ledger.json", []byte("second"), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrRevisionConflict), "got %v", err)

		b, err := s.Read(ctx, "ledger.json")
		require.NoError(t, err)
		assert.Equal(t, "first", string(b.Content))
	})

	t.Run("UpdateWithCurrentRevision", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rev1, err := s.Write(ctx, "ledger.json", []byte("v1"), "")
		require.NoError(t, err)
		rev2, err := s.Write(ctx, "ledger.json", []byte("v2"), rev1)
		require.NoError(t, err)
		assert.NotEqual(t, rev1, rev2, "every write produces a new revision")

		b, err := s.Read(ctx, "ledger.json")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(b.Content))
		assert.Equal(t, rev2, b.Revision)
	})

	t.Run("UpdateWithStaleRevisionConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rev1, err := s.Write(ctx, "ledger.json", []byte("v1"), "")
		require.NoError(t, err)
		rev2, err := s.Write(ctx, "ledger.json", []byte("v2"), rev1)
		require.NoError(t, err)

		_, err = s.Write(ctx, "ledger.json", []byte("lost update"), rev1)
		require.Error(t, err)
		var conflict *store.ConflictError
		require.True(t, errors.As(err, &conflict), "got %v", err)
		assert.Equal(t, rev1, conflict.ExpectedRevision)

		b, err := s.Read(ctx, "ledger.json")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(b.Content))
		assert.Equal(t, rev2, b.Revision)
	})

	t.Run("UpdateMissingConflicts", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Write(context.Background(), "ledger.json", []byte("v1"), "some-revision")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrRevisionConflict), "got %v", err)
	})

	t.Run("PathsAreIndependent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Write(ctx, "a.json", []byte("a"), "")
		require.NoError(t, err)
		_, err = s.Write(ctx, "b.json", []byte("b"), "")
		require.NoError(t, err)

		a, err := s.Read(ctx, "a.json")
		require.NoError(t, err)
		assert.Equal(t, "a", string(a.Content))
	})
}
