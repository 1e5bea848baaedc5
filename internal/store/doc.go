// Package store provides a SQLite-backed catalog of CVP1 artifacts.
//
// The catalog holds two tables:
//   - artifacts: artifact bytes keyed by their content-addressed ID, with
//     the canonical manifest and a few denormalized stats for listing
//   - runs: one row per encode, decode or verify performed against the
//     catalog, with the error kind when the operation failed
//
// # Ordering
//
// Rows are stamped with seq from a logical Clock, never wall time. Every
// list query orders by seq ASC, id ASC COLLATE BINARY so that listings are
// identical across runs.
//
// # Idempotency
//
// PutArtifact is keyed on the artifact ID. Because encoding is
// deterministic, storing the same payload twice yields the same ID and the
// second write is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The codec itself never touches the catalog; callers (the CLI) decide
// what gets recorded.
package store
