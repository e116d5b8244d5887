// SPDX-License-Identifier: MPL-2.0

package render

import (
	"path"

	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/tagtree"
)

type (
	// Node is a detached copy of one tree node.
	Node struct {
		Kind  string `json:"kind" yaml:"kind"`
		Name  string `json:"name" yaml:"name"`
		Label string `json:"label" yaml:"label"`
		// Icon is the icon hint of content roots.
		Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`
		// Path is the document path relative to the project root, or the
		// absolute path for documents outside it.
		Path string `json:"path,omitempty" yaml:"path,omitempty"`
		// Count is the number of tag occurrences under the node.
		Count    int     `json:"count" yaml:"count"`
		Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	}

	// Snapshot is a detached copy of the whole tree.
	Snapshot struct {
		Layout     tagtree.LayoutKind `json:"layout" yaml:"layout"`
		Statistics tagtree.Statistics `json:"statistics" yaml:"statistics"`
		Summary    tagtree.Summary    `json:"summary" yaml:"summary"`
		Root       *Node              `json:"root" yaml:"root"`
	}
)

// Kind names used in Node.Kind.
var (
	KindRoot        = tagtree.KindRoot.String()
	KindContentRoot = tagtree.KindContentRoot.String()
	KindCategory    = tagtree.KindCategory.String()
	KindTag         = tagtree.KindTag.String()
	KindDocument    = tagtree.KindDocument.String()
)

// Capture snapshots the active layout of e. Labels are decorated per mode.
func Capture(e *engine.Engine, mode tagtree.Statistics) *Snapshot {
	m := e.Model()
	root := m.Root()
	return &Snapshot{
		Layout:     m.Layout().Kind(),
		Statistics: mode,
		Summary:    m.Summary(root, e.Index()),
		Root:       build(m, root, mode, e.Index(), e.Workspace().ProjectRoot()),
	}
}

// FromSession snapshots the session tree under its read lock.
func FromSession(s *engine.Session, mode tagtree.Statistics) *Snapshot {
	var snap *Snapshot
	s.View(func(e *engine.Engine) {
		snap = Capture(e, mode)
	})
	return snap
}

func build(m *tagtree.Model, n tagtree.Node, mode tagtree.Statistics, c tagtree.Counter, projectRoot string) *Node {
	out := &Node{
		Kind:  n.Kind().String(),
		Name:  n.DisplayName(),
		Label: m.Label(n, mode, c),
	}
	switch n := n.(type) {
	case *tagtree.Root, *tagtree.ContentRoot:
		out.Count = m.Summary(n, c).Occurrences
		if cr, ok := n.(*tagtree.ContentRoot); ok {
			out.Icon = cr.Icon()
		}
	case *tagtree.Category:
		out.Count = n.Count(c)
	case *tagtree.Tag:
		out.Count = n.Count(c)
	case *tagtree.Document:
		out.Count = n.Count(c)
		out.Path = RelativePath(n.ID(), projectRoot)
	}

	children := m.Children(n)
	if len(children) > 0 {
		out.Children = make([]*Node, len(children))
		for i, child := range children {
			out.Children[i] = build(m, child, mode, c, projectRoot)
		}
	}
	return out
}

// RelativePath returns the path of id relative to projectRoot, or its
// absolute path when it lies outside.
func RelativePath(id document.ID, projectRoot string) string {
	dir, ok := document.RelativeDir(id, projectRoot)
	if !ok {
		return id.Path()
	}
	return path.Join(dir, id.Base())
}

// Walk calls fn for n and its descendants in depth-first order. Returning
// false skips the children of the node.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Find returns the first node of the given kind and name, or nil.
func (n *Node) Find(kind, name string) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.Kind == kind && c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }
