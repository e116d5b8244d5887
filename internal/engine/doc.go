// SPDX-License-Identifier: MPL-2.0

// Package engine keeps the aggregate tag tree consistent with the documents
// of a workspace.
//
// Engine holds the algorithms: a full scan (BuildModel), the insertion
// routine (Place), and incremental reconciliation of changed documents
// (Reconcile). Engine is single-writer and does no locking of its own.
//
// Session wraps an Engine for concurrent hosts. It is the one serialization
// point for mutations and reads, parses documents off-lock, applies their
// results as a single batch, and coalesces repeated change events.
package engine
