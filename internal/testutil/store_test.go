package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/store/storetest"
)

func TestFaultyStore_Conformance(t *testing.T) {
	storetest.TestDocumentStore(t, func(t *testing.T) store.DocumentStore {
		return NewFaultyStore(store.NewMemoryStore())
	})
}

func TestFaultyStore_BeforeNextWriteRunsOncePerWrite(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewFaultyStore(mem)

	var order []string
	s.BeforeNextWrite(func() { order = append(order, "first") })
	s.BeforeNextWrite(func() { order = append(order, "second") })

	rev, err := s.Write(ctx, "doc", []byte("a"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, order)

	_, err = s.Write(ctx, "doc", []byte("b"), rev)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)

	_, writes := s.Counts()
	assert.Equal(t, 2, writes)
}

func TestFaultyStore_RivalWriteCausesConflict(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewFaultyStore(mem)

	rev, err := s.Write(ctx, "doc", []byte("a"), "")
	require.NoError(t, err)

	s.BeforeNextWrite(func() {
		_, err := mem.Write(ctx, "doc", []byte("rival"), rev)
		require.NoError(t, err)
	})

	_, err = s.Write(ctx, "doc", []byte("b"), rev)
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)

	b, err := s.Read(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "rival", string(b.Content))
}

func TestFaultyStore_FailReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := NewFaultyStore(store.NewMemoryStore())
	boom := errors.New("connection refused")

	s.FailWrites(boom)
	_, err := s.Write(ctx, "doc", []byte("a"), "")
	assert.ErrorIs(t, err, boom)

	s.FailWrites(nil)
	_, err = s.Write(ctx, "doc", []byte("a"), "")
	require.NoError(t, err)

	s.FailReads(boom)
	_, err = s.Read(ctx, "doc")
	assert.ErrorIs(t, err, boom)

	s.FailReads(nil)
	_, err = s.Read(ctx, "doc")
	assert.NoError(t, err)

	reads, writes := s.Counts()
	assert.Equal(t, 2, reads)
	assert.Equal(t, 2, writes)
}

func TestFaultyStore_ForgeReadRevision(t *testing.T) {
	ctx := context.Background()
	s := NewFaultyStore(store.NewMemoryStore())

	rev, err := s.Write(ctx, "doc", []byte("a"), "")
	require.NoError(t, err)

	s.ForgeReadRevision("forged")
	b, err := s.Read(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "forged", b.Revision)
	assert.NotEqual(t, rev, b.Revision)

	_, err = s.Read(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
