// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"github.com/tagscope/tagscope/internal/tagtree"
)

// rootPathLabel stands for the project root in path-based display names.
const rootPathLabel = "/"

// disambiguate recomputes the display names of the documents under t that
// share the base name base.
//
// A lone document shows its base name. Several documents show
// "base [heading]" when every one of them has a heading and the headings are
// all different, and "base [dir]" otherwise, where dir is the document's
// directory relative to the project root.
func (e *Engine) disambiguate(t *tagtree.Tag, base string) {
	group := t.SameBaseName(base)
	switch len(group) {
	case 0:
		return
	case 1:
		group[0].ResetDisplayName()
		return
	}

	if headings, ok := e.distinctHeadings(group); ok {
		for i, d := range group {
			d.SetDisplayName(qualified(base, headings[i]))
		}
		return
	}

	projectRoot := e.workspace.ProjectRoot()
	for _, d := range group {
		rel, ok := e.parser.RelativePath(d.ID(), projectRoot)
		if !ok {
			d.ResetDisplayName()
			continue
		}
		if rel == "" {
			rel = rootPathLabel
		}
		d.SetDisplayName(qualified(base, rel))
	}
}

// distinctHeadings returns the headings of group in order, or false when a
// heading is missing or two headings are equal.
func (e *Engine) distinctHeadings(group []*tagtree.Document) ([]string, bool) {
	headings := make([]string, len(group))
	seen := make(map[string]struct{}, len(group))
	for i, d := range group {
		h, ok := e.parser.PrimaryHeading(d.ID())
		if !ok {
			return nil, false
		}
		if _, dup := seen[h]; dup {
			return nil, false
		}
		seen[h] = struct{}{}
		headings[i] = h
	}
	return headings, true
}

func qualified(base, detail string) string {
	return base + " [" + detail + "]"
}
