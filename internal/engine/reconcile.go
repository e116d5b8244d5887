// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/tagtree"
)

const (
	// Updated means the document exists and its tags were reconciled.
	Updated Outcome = iota
	// Deleted means the document is gone and was removed from the tree.
	Deleted
)

type (
	// Outcome is the result of reconciling one document.
	Outcome int

	// BatchResult summarizes a batch of reconciliations.
	BatchResult struct {
		Updated int
		Deleted int
	}
)

// String returns "updated" or "deleted".
func (o Outcome) String() string {
	if o == Deleted {
		return "deleted"
	}
	return "updated"
}

// Reconcile brings the tree in line with the current content of id and
// sorts the tree.
func (e *Engine) Reconcile(id document.ID) Outcome {
	outcome := e.reconcile(id)
	e.root.Sort()
	return outcome
}

// ReconcileBatch reconciles every document, then sorts the tree once.
func (e *Engine) ReconcileBatch(ids []document.ID) BatchResult {
	var r BatchResult
	for _, id := range ids {
		if e.reconcile(id) == Deleted {
			r.Deleted++
		} else {
			r.Updated++
		}
	}
	e.root.Sort()
	return r
}

func (e *Engine) reconcile(id document.ID) Outcome {
	h := e.layout.HolderFor(e.root, id, false)
	var before []tagtree.Placement
	if h != nil {
		before = tagtree.TagsOf(h, id)
	}

	if !e.workspace.Exists(id) {
		for _, p := range before {
			e.unbind(h, p, id)
		}
		e.index.Remove(id)
		e.logger.Debug("document removed", "document", id, "tags", len(before))
		return Deleted
	}

	// A document whose content root changed is refiled from scratch.
	if target := e.layout.HolderFor(e.root, id, true); h != nil && target != h {
		for _, p := range before {
			e.unbind(h, p, id)
		}
		e.sweep(h)
		before = nil
	}

	occ, _ := e.parser.Occurrences(id)
	now := document.TagNames(occ)
	nowSet := make(map[string]struct{}, len(now))
	for _, tag := range now {
		nowSet[tag] = struct{}{}
	}
	beforeSet := make(map[string]struct{}, len(before))
	for _, p := range before {
		beforeSet[p.Tag.Name()] = struct{}{}
	}

	e.index.Recompute(id)

	var added, removed []string
	for _, tag := range now {
		if _, ok := beforeSet[tag]; !ok {
			e.place(tag, id)
			added = append(added, tag)
		}
	}
	holder := e.layout.HolderFor(e.root, id, true)
	for _, p := range before {
		if _, ok := nowSet[p.Tag.Name()]; !ok {
			e.unbind(holder, p, id)
			removed = append(removed, p.Tag.Name())
			continue
		}
		e.disambiguate(p.Tag, id.Base())
	}

	e.sweep(holder)

	if len(added) > 0 || len(removed) > 0 {
		e.logger.Debug("document reconciled", "document", id, "added", added, "removed", removed)
	}
	return Updated
}

// unbind detaches id from the placed tag and applies the cleanup rule:
// an empty tag leaves its category, an empty non-Other category leaves its
// holder, and a holder left with only an empty Other leaves the root when
// the layout allows it. Missing nodes are ignored.
func (e *Engine) unbind(h tagtree.Holder, p tagtree.Placement, id document.ID) {
	if !p.Tag.Unbind(id) {
		return
	}
	e.disambiguate(p.Tag, id.Base())

	if !p.Tag.IsEmpty() {
		return
	}
	p.Category.RemoveTag(p.Tag.Name())
	if p.Category.IsOther() || !p.Category.IsEmpty() {
		e.layout.Prune(e.root, h)
		return
	}
	h.RemoveCategory(p.Category.Name())
	e.layout.Prune(e.root, h)
}

// sweep removes empty tags, then empty non-Other categories from h, then h
// itself if the layout allows it and nothing is left.
func (e *Engine) sweep(h tagtree.Holder) {
	if h == nil {
		return
	}
	for _, c := range append([]*tagtree.Category(nil), h.Categories()...) {
		for _, t := range append([]*tagtree.Tag(nil), c.Tags()...) {
			if t.IsEmpty() {
				c.RemoveTag(t.Name())
			}
		}
		if !c.IsOther() && c.IsEmpty() {
			h.RemoveCategory(c.Name())
		}
	}
	e.layout.Prune(e.root, h)
}
