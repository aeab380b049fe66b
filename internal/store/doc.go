// Package store provides SQLite-backed persistence for schemaforge.
//
// The store keeps four tables:
//   - schema_snapshots: the latest definition of each schema, keyed by name
//   - migration_history: one row per attempted plan (identity, checksum,
//     safety, step descriptions, outcome)
//   - statement_journal: every compiled statement handed to the journal
//     executor, in order
//   - records: JSON documents per schema, read through compiled Query IR
//
// Migration plans are not persisted. They are recomputed from two snapshots
// and optional rename hints; history keeps only what is needed to audit them.
//
// # Ordering
//
// Every write is stamped from a logical clock seeded from the highest seq
// already stored. Reads order by seq ASC, or by name/id COLLATE BINARY where
// seq is not meaningful, so results never depend on wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Snapshots and record bodies are written as RFC 8785 canonical JSON via
// internal/ir so identical content always produces identical rows.
package store
