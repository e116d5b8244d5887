// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"slices"

	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/tagtree"
)

// Location is one place a tag appears in the active layout.
type Location struct {
	Holder   tagtree.Holder
	Category *tagtree.Category
	Tag      *tagtree.Tag
}

// FindTag returns every location of the named tag in the active layout.
func (e *Engine) FindTag(name string) []Location {
	var out []Location
	for _, h := range e.Holders() {
		if c, t := tagtree.FindTag(h, name); t != nil {
			out = append(out, Location{Holder: h, Category: c, Tag: t})
		}
	}
	return out
}

// DocumentsWithTag returns the sorted, distinct documents bound to the named
// tag in the active layout.
func (e *Engine) DocumentsWithTag(name string) []document.ID {
	var ids []document.ID
	for _, loc := range e.FindTag(name) {
		for _, d := range loc.Tag.Documents() {
			ids = append(ids, d.ID())
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Summary summarizes the active layout.
func (e *Engine) Summary() tagtree.Summary {
	return tagtree.Summarize(e.index, e.Holders()...)
}
