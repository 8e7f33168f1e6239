package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on document_history(path, seq)
const currentSchemaVersion = 1

// SQLiteStore is a DocumentStore backed by a SQLite file.
// Every accepted write is also appended to document_history.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// HistoryEntry is one accepted write recorded by SQLiteStore.
type HistoryEntry struct {
	Seq       int64
	Path      string
	Revision  string
	Message   string
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Read returns the current content and revision at path.
func (s *SQLiteStore) Read(ctx context.Context, path string) (Blob, error) {
	var b Blob
	err := s.db.QueryRowContext(ctx,
		`SELECT content, revision FROM documents WHERE path = ?`, path,
	).Scan(&b.Content, &b.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// Write replaces the document at path if its revision is expectedRevision.
// New revisions are UUIDv7 strings.
func (s *SQLiteStore) Write(ctx context.Context, path string, content []byte, expectedRevision string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write %s: begin tx: %w", path, err)
	}
	defer tx.Rollback() // No-op if committed

	var current string
	err = tx.QueryRowContext(ctx, `SELECT revision FROM documents WHERE path = ?`, path).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("write %s: read revision: %w", path, err)
	}
	if current != expectedRevision {
		return "", &ConflictError{Path: path, ExpectedRevision: expectedRevision, CurrentRevision: current}
	}

	rev := uuid.Must(uuid.NewV7()).String()
	now := s.now().UnixMilli()

	if expectedRevision == "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (path, content, revision, updated_at)
			VALUES (?, ?, ?, ?)
		`, path, content, rev, now)
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE documents SET content = ?, revision = ?, updated_at = ?
			WHERE path = ? AND revision = ?
		`, content, rev, now, path, expectedRevision)
		if err == nil {
			var n int64
			if n, err = res.RowsAffected(); err == nil && n != 1 {
				return "", &ConflictError{Path: path, ExpectedRevision: expectedRevision}
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_history (path, revision, message, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, path, rev, CommitMessage(ctx, "update "+path), content, now)
	if err != nil {
		return "", fmt.Errorf("write %s: record history: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write %s: commit: %w", path, err)
	}
	return rev, nil
}

// History returns the accepted writes for path, oldest first.
// Returns an empty slice (not nil) if nothing was written.
func (s *SQLiteStore) History(ctx context.Context, path string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, path, revision, message, created_at
		FROM document_history
		WHERE path = ?
		ORDER BY seq ASC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			e       HistoryEntry
			created int64
		)
		if err := rows.Scan(&e.Seq, &e.Path, &e.Revision, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the history lookup index.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_history_path
		ON document_history(path, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLiteStore) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
