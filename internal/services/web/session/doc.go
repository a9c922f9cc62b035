// Package session holds the per-application-load identity state and its only
// writer.
//
// A Store is the single source of truth for "who is logged in". Readers take
// snapshots with Current or follow changes with Observe. Writes are
// unexported: only the Synchronizer, which reconciles local state with the
// backend's session, can change a Store.
package session
