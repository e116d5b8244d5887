// SPDX-License-Identifier: MPL-2.0

// Package occurrence counts how often each tag appears in each document.
//
// The index is independent of the aggregate tree. Tree nodes consult it for
// display statistics through CountOf.
package occurrence

import (
	"github.com/tagscope/tagscope/internal/document"
)

type (
	// Enumerator lists the tag occurrences of a document. It reports false
	// when the document cannot be read.
	Enumerator interface {
		Occurrences(id document.ID) ([]document.Occurrence, bool)
	}

	// Index maps (document, tag name) to an occurrence count.
	//
	// An Index is not safe for concurrent use; its owner serializes access.
	Index struct {
		source  Enumerator
		entries map[document.ID]map[string]int
	}
)

// NewIndex returns an empty index that enumerates documents through source.
func NewIndex(source Enumerator) *Index {
	return &Index{source: source, entries: make(map[document.ID]map[string]int)}
}

// Init discards all entries and sizes storage for the expected number of
// documents.
func (x *Index) Init(expectedDocuments int) {
	x.entries = make(map[document.ID]map[string]int, max(expectedDocuments, 0))
}

// EnsureComputed creates the entry for id unless one exists. Unreadable
// documents get no entry.
func (x *Index) EnsureComputed(id document.ID) {
	if _, ok := x.entries[id]; ok {
		return
	}
	occ, ok := x.source.Occurrences(id)
	if !ok {
		return
	}
	x.entries[id] = count(occ)
}

// Recompute replaces the entry for id. An unreadable document is left with
// an empty entry.
func (x *Index) Recompute(id document.ID) {
	occ, _ := x.source.Occurrences(id)
	x.entries[id] = count(occ)
}

// CountOf returns how often tag occurs in id, or 0 when unknown.
func (x *Index) CountOf(id document.ID, tag string) int {
	return x.entries[id][tag]
}

// Has reports whether an entry exists for id.
func (x *Index) Has(id document.ID) bool {
	_, ok := x.entries[id]
	return ok
}

// Len returns the number of documents with an entry.
func (x *Index) Len() int {
	return len(x.entries)
}

// Remove deletes the entry for id.
func (x *Index) Remove(id document.ID) {
	delete(x.entries, id)
}

// Dispose clears all entries.
func (x *Index) Dispose() {
	clear(x.entries)
}

func count(occ []document.Occurrence) map[string]int {
	counts := make(map[string]int, len(occ))
	for _, o := range occ {
		counts[o.Tag]++
	}
	return counts
}
