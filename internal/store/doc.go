// Package store provides SQLite-backed storage for serialized GSIM logic
// trees and realization lists.
//
// A GSIM tree is stored in columnar form: one gsim_branches row per
// effective branch, one gsim_weights row per (branch, weight key) with
// NULL for keys the branch does not override, and the bytes of every
// data file a GSIM refers to in gsim_files. Trees are keyed by their
// fingerprint, so writing the same tree twice is a no-op.
//
// Realizations are keyed by (tree fingerprint, ordinal) and carry a
// content hash binding the path and weight to the tree.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All reads order by explicit sequence columns for deterministic results.
package store
