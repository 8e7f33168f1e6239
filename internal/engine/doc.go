// Package engine implements the ledger's optimistic-concurrency update protocol.
//
// The engine is the only component that talks to the document store. It
// holds no document itself: Fetch returns a State (document + revision
// token) and every mutation takes a State and returns the next one, so
// callers thread state explicitly and several engines can share a store.
//
// Mutation Flow:
// 1. Validate the mutation against the caller's snapshot (package ledger)
// 2. Build the new document by appending the validated records
// 3. Write it with the snapshot's revision (compare-and-swap)
// 4. Re-read and confirm the store reports the revision the write returned
//
// On a CAS conflict the engine re-fetches, re-validates against the fresh
// snapshot and writes again, within a bounded attempt budget. Anything else
// (store failure, corrupt document, failed verification) is returned at once.
// A failed mutation never alters the caller's State.
//
// The engine is single-threaded per call and does no background work; every
// blocking operation honors the context passed in.
package engine
