// SPDX-License-Identifier: MPL-2.0

package tagtree

import (
	"github.com/tagscope/tagscope/internal/document"
)

const (
	// KindRoot is the tree root.
	KindRoot NodeKind = iota
	// KindContentRoot is a module or other grouping of documents.
	KindContentRoot
	// KindCategory is a group of tags.
	KindCategory
	// KindTag is a tag.
	KindTag
	// KindDocument is a document bound under a tag.
	KindDocument
)

type (
	// NodeKind identifies the concrete type of a Node.
	NodeKind int

	// Node is implemented by *Root, *ContentRoot, *Category, *Tag and
	// *Document only.
	Node interface {
		// DisplayName is the name shown for the node and used for ordering.
		DisplayName() string
		Kind() NodeKind
		sortChildren()
	}

	// Counter reports how often a tag occurs in a document.
	Counter interface {
		CountOf(id document.ID, tag string) int
	}

	// Document binds one document under one tag.
	Document struct {
		id   document.ID
		tag  string
		name string
	}

	// Tag is a tag name plus the documents carrying it, unique by document.
	Tag struct {
		name string
		docs []*Document
	}
)

// String returns the lower-case kind name.
func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindContentRoot:
		return "content_root"
	case KindCategory:
		return "category"
	case KindTag:
		return "tag"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

func newDocument(id document.ID, tag string) *Document {
	return &Document{id: id, tag: tag, name: id.Base()}
}

// ID returns the bound document.
func (d *Document) ID() document.ID { return d.id }

// TagName returns the name of the owning tag.
func (d *Document) TagName() string { return d.tag }

// BaseName returns the document's file name.
func (d *Document) BaseName() string { return d.id.Base() }

// DisplayName implements Node.
func (d *Document) DisplayName() string { return d.name }

// Kind implements Node.
func (*Document) Kind() NodeKind { return KindDocument }

// SetDisplayName replaces the display name.
func (d *Document) SetDisplayName(name string) { d.name = name }

// ResetDisplayName restores the default display name, the base name.
func (d *Document) ResetDisplayName() { d.name = d.id.Base() }

// Count returns how often the owning tag occurs in the document.
func (d *Document) Count(c Counter) int {
	return c.CountOf(d.id, d.tag)
}

func (*Document) sortChildren() {}

// NewTag returns an empty tag. An empty tag must not stay in a tree.
func NewTag(name string) *Tag {
	return &Tag{name: name}
}

// Name returns the tag name.
func (t *Tag) Name() string { return t.name }

// DisplayName implements Node.
func (t *Tag) DisplayName() string { return t.name }

// Kind implements Node.
func (*Tag) Kind() NodeKind { return KindTag }

// Documents returns the bound documents. The slice must not be modified.
func (t *Tag) Documents() []*Document { return t.docs }

// Len returns the number of bound documents.
func (t *Tag) Len() int { return len(t.docs) }

// IsEmpty reports whether no document is bound.
func (t *Tag) IsEmpty() bool { return len(t.docs) == 0 }

// Document returns the binding for id, or nil.
func (t *Tag) Document(id document.ID) *Document {
	for _, d := range t.docs {
		if d.id == id {
			return d
		}
	}
	return nil
}

// Bind adds a binding for id unless one exists. It returns the binding and
// whether it was created.
func (t *Tag) Bind(id document.ID) (*Document, bool) {
	if d := t.Document(id); d != nil {
		return d, false
	}
	d := newDocument(id, t.name)
	t.docs = append(t.docs, d)
	return d, true
}

// Unbind removes the binding for id. It is a no-op when id is not bound.
func (t *Tag) Unbind(id document.ID) bool {
	for i, d := range t.docs {
		if d.id == id {
			t.docs = append(t.docs[:i], t.docs[i+1:]...)
			return true
		}
	}
	return false
}

// SameBaseName returns the bindings whose document has the given base name.
func (t *Tag) SameBaseName(base string) []*Document {
	var out []*Document
	for _, d := range t.docs {
		if d.BaseName() == base {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the sum of occurrence counts over all bound documents.
func (t *Tag) Count(c Counter) int {
	total := 0
	for _, d := range t.docs {
		total += d.Count(c)
	}
	return total
}

func (t *Tag) sortChildren() { sortNodes(t.docs) }
