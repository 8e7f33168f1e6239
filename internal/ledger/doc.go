// Package ledger defines the ledger document and the pure rules that operate on it.
//
// The ledger is a single JSON document holding four collections:
//   - Components: independently versioned units of software
//   - Versions: append-only log of released tags per component
//   - Setups: named, fixed sets of components that are tested together
//   - Tests: append-only log of test outcomes against component versions
//
// Nothing in this package performs I/O. Mutations are described by the closed
// Mutation variant, checked by Validate against a document snapshot, and
// applied by Apply to produce a new document. The read side (LatestVersion,
// ComponentsVersions, SetupComponents, ...) resolves versions by semantic
// version precedence rather than insertion order.
//
// # Invariants
//
//   - Component ids and names are unique
//   - Setup ids, names and component sets are unique (sets compared order-independently)
//   - Setup component ids reference existing components at creation time
//   - A test against a known setup names exactly the setup's components
//   - Versions and tests are never edited or removed
//
// Validation returns a typed *Error for rejected input. Conditions the ledger
// tolerates (an unknown setup in a test, a duplicate version tag) are reported
// as Warnings alongside the accepted mutation.
package ledger
