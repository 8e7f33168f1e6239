package store_test

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/store/storetest"
)

func TestMemoryStore_Conformance(t *testing.T) {
	storetest.TestDocumentStore(t, func(t *testing.T) store.DocumentStore {
		return store.NewMemoryStore()
	})
}

func TestSQLiteStore_Conformance(t *testing.T) {
	storetest.TestDocumentStore(t, func(t *testing.T) store.DocumentStore {
		s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
