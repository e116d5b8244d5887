// SPDX-License-Identifier: MPL-2.0

package tagtree

// Model exposes the tree through a generic traversal contract for renderers.
// Nodes are identified by pointer, so a renderer holding a node sees it
// disappear from its parent when the tree changes.
type Model struct {
	root   *Root
	layout Layout
}

// NewModel returns a traversal over root as shaped by layout.
func NewModel(root *Root, layout Layout) *Model {
	return &Model{root: root, layout: layout}
}

// Root returns the tree root.
func (m *Model) Root() Node { return m.root }

// Layout returns the layout the model follows.
func (m *Model) Layout() Layout { return m.layout }

// Children returns the children of n in display order.
func (m *Model) Children(n Node) []Node {
	switch n := n.(type) {
	case *Root:
		return m.layout.Children(n)
	case *ContentRoot:
		return asNodes(n.Categories())
	case *Category:
		return asNodes(n.Tags())
	case *Tag:
		return asNodes(n.Documents())
	case *Document:
		return nil
	default:
		return nil
	}
}

// ChildCount returns the number of children of n.
func (m *Model) ChildCount(n Node) int {
	switch n := n.(type) {
	case *Root:
		if m.layout.Kind() == LayoutGrouped {
			return len(n.ContentRoots())
		}
		return len(n.Categories())
	case *ContentRoot:
		return len(n.Categories())
	case *Category:
		return n.Len()
	case *Tag:
		return n.Len()
	case *Document:
		return 0
	default:
		return 0
	}
}

// ChildAt returns the child of n at index i, or nil when out of range.
func (m *Model) ChildAt(n Node, i int) Node {
	children := m.Children(n)
	if i < 0 || i >= len(children) {
		return nil
	}
	return children[i]
}

// IndexOf returns the position of child under parent, or -1.
func (m *Model) IndexOf(parent, child Node) int {
	for i, c := range m.Children(parent) {
		if c == child {
			return i
		}
	}
	return -1
}

// IsLeaf reports whether n can never have children.
func (m *Model) IsLeaf(n Node) bool {
	_, ok := n.(*Document)
	return ok
}

// Walk visits n and its descendants depth-first. fn returning false skips
// the node's children.
func (m *Model) Walk(n Node, fn func(n Node, depth int) bool) {
	m.walk(n, 0, fn)
}

func (m *Model) walk(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range m.Children(n) {
		m.walk(c, depth+1, fn)
	}
}
