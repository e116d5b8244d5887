// SPDX-License-Identifier: MPL-2.0

// Package parsecache persists document parse results in an embedded BadgerDB
// so that restarts do not re-parse unchanged documents.
//
// Entries are keyed by document identity and carry the size and modification
// time the document had when parsed; a lookup with a different stamp misses.
// The cache is a pure accelerator: every failure degrades to a miss.
package parsecache
