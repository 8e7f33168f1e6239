// Package store provides revisioned document storage for the ledger.
//
// A DocumentStore holds opaque blobs addressed by path. Every blob carries a
// revision token; Write succeeds only when the caller's expected revision
// matches the stored one (compare-and-swap) and fails with *ConflictError
// otherwise. An empty expected revision means "create, the path must not
// exist yet".
//
// # Backends
//
//   - MemoryStore: in-process map, sequential revisions, for tests and the scenario harness
//   - SQLiteStore: SQLite file with a documents table and an append-only history
//   - GCSStore: Google Cloud Storage object, revision = object generation
//   - GitHubStore: file in a GitHub repository, revision = blob sha
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Revision tokens are opaque to callers. Backends never retry a conflicting
// write; that decision belongs to the ledger engine.
package store
