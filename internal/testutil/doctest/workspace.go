// SPDX-License-Identifier: MPL-2.0

package doctest

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tagscope/tagscope/internal/document"
)

var errUnreadable = errors.New("document unreadable")

type (
	// Doc describes one in-memory document.
	Doc struct {
		// Tags lists every tag occurrence in order; repeat a tag to count it
		// more than once.
		Tags []string
		// Heading is the primary heading; empty means none.
		Heading string
		// Root names the content root; empty means outside every root.
		Root string
		// Unreadable makes the document exist without being parseable.
		Unreadable bool
	}

	// Workspace implements document.Workspace and document.Parser over
	// in-memory documents. It is safe for concurrent use.
	Workspace struct {
		root string

		mu   sync.RWMutex
		docs map[document.ID]Doc

		parses atomic.Int64
	}

	// DocOption configures a test document.
	DocOption func(*Doc)
)

// WithHeading sets the primary heading.
func WithHeading(h string) DocOption {
	return func(d *Doc) { d.Heading = h }
}

// InRoot places the document in a module content root.
func InRoot(name string) DocOption {
	return func(d *Doc) { d.Root = name }
}

// Unreadable makes the document unparseable.
func Unreadable() DocOption {
	return func(d *Doc) { d.Unreadable = true }
}

// New returns an empty workspace rooted at projectRoot.
func New(projectRoot string) *Workspace {
	return &Workspace{root: projectRoot, docs: make(map[document.ID]Doc)}
}

// Put creates or replaces a document.
func (w *Workspace) Put(id document.ID, tags []string, opts ...DocOption) {
	d := Doc{Tags: slices.Clone(tags)}
	for _, opt := range opts {
		opt(&d)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[id] = d
}

// SetTags replaces the tags of an existing document, keeping its other
// attributes.
func (w *Workspace) SetTags(id document.ID, tags ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.docs[id]
	d.Tags = slices.Clone(tags)
	w.docs[id] = d
}

// Delete removes a document.
func (w *Workspace) Delete(id document.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, id)
}

// Parses returns how many times Parse has been called.
func (w *Workspace) Parses() int64 {
	return w.parses.Load()
}

// ProjectRoot implements document.Workspace.
func (w *Workspace) ProjectRoot() string { return w.root }

// Documents implements document.Workspace.
func (w *Workspace) Documents() []document.ID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.docs))
}

// Exists implements document.Workspace.
func (w *Workspace) Exists(id document.ID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.docs[id]
	return ok
}

// ContentRootOf implements document.Workspace.
func (w *Workspace) ContentRootOf(id document.ID) (document.RootRef, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.docs[id]
	if !ok || d.Root == "" {
		return document.RootRef{}, false
	}
	return document.RootRef{Name: d.Root, Kind: document.RootModule}, true
}

// Parse implements document.Source.
func (w *Workspace) Parse(id document.ID) (document.Parsed, error) {
	w.parses.Add(1)
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.docs[id]
	if !ok || d.Unreadable {
		return document.Parsed{}, errUnreadable
	}
	occ := make([]document.Occurrence, len(d.Tags))
	for i, tag := range d.Tags {
		occ[i] = document.Occurrence{Tag: tag, Site: document.Site{Line: i + 1, Column: 1}}
	}
	return document.Parsed{Occurrences: occ, Heading: d.Heading}, nil
}

// Occurrences implements document.Parser.
func (w *Workspace) Occurrences(id document.ID) ([]document.Occurrence, bool) {
	p, err := w.Parse(id)
	return p.Occurrences, err == nil
}

// PrimaryHeading implements document.Parser.
func (w *Workspace) PrimaryHeading(id document.ID) (string, bool) {
	p, err := w.Parse(id)
	return p.Heading, err == nil && p.Heading != ""
}

// RelativePath implements document.Parser.
func (w *Workspace) RelativePath(id document.ID, projectRoot string) (string, bool) {
	return document.RelativeDir(id, projectRoot)
}
