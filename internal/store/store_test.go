package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	rev, err := s1.Write(ctx, "ledger.json", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	b, err := s2.Read(ctx, "ledger.json")
	if err != nil {
		t.Fatalf("Read() after reopen failed: %v", err)
	}
	if b.Revision != rev {
		t.Errorf("revision = %q, want %q", b.Revision, rev)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"documents", "document_history"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &SQLiteStore{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := openTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := openTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := openTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestMigrations_UserVersion(t *testing.T) {
	s := openTestStore(t)
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_document_history_path'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		t.Error("history index missing")
	} else if err != nil {
		t.Fatalf("query index: %v", err)
	}
}

func TestWrite_RevisionsAreUUIDv7(t *testing.T) {
	s := openTestStore(t)

	rev, err := s.Write(context.Background(), "ledger.json", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	id, err := uuid.Parse(rev)
	if err != nil {
		t.Fatalf("revision %q is not a UUID: %v", rev, err)
	}
	if id.Version() != 7 {
		t.Errorf("revision version = %d, want 7", id.Version())
	}
}

func TestWrite_ConflictReportsCurrentRevision(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rev1, _ := s.Write(ctx, "ledger.json", []byte("v1"), "")
	rev2, err := s.Write(ctx, "ledger.json", []byte("v2"), rev1)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	_, err = s.Write(ctx, "ledger.json", []byte("v3"), rev1)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.CurrentRevision != rev2 {
		t.Errorf("CurrentRevision = %q, want %q", conflict.CurrentRevision, rev2)
	}
}

func TestHistory_RecordsAcceptedWrites(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	rev1, err := s.Write(WithCommitMessage(ctx, "ledger: initialize"), "ledger.json", []byte("v1"), "")
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	// Rejected writes leave no trace.
	if _, err := s.Write(ctx, "ledger.json", []byte("x"), "stale"); err == nil {
		t.Fatal("expected conflict")
	}
	rev2, err := s.Write(ctx, "ledger.json", []byte("v2"), rev1)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	entries, err := s.History(ctx, "ledger.json")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(History()) = %d, want 2", len(entries))
	}
	if entries[0].Revision != rev1 || entries[0].Message != "ledger: initialize" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Revision != rev2 || entries[1].Message != "update ledger.json" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if !entries[0].CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", entries[0].CreatedAt, fixed)
	}
	if entries[0].Seq >= entries[1].Seq {
		t.Errorf("history not ordered by seq: %d, %d", entries[0].Seq, entries[1].Seq)
	}
}

func TestHistory_EmptyNotNil(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.History(context.Background(), "missing.json")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("History() = %#v, want empty slice", entries)
	}
}
