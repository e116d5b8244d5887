// SPDX-License-Identifier: MPL-2.0

package tui

import "github.com/tagscope/tagscope/internal/render"

// defaultOpenDepth is how deep nodes start expanded: the root and its
// direct children.
const defaultOpenDepth = 2

type (
	// row is one visible line of the browser.
	row struct {
		node  *render.Node
		key   string
		depth int
		open  bool
	}

	// expansion records the nodes the user opened or closed, keyed by their
	// path in the tree. Nodes without an entry follow defaultOpenDepth, so
	// new content appearing on a live update opens like the initial tree.
	expansion map[string]bool
)

func (e expansion) isOpen(key string, depth int) bool {
	if open, ok := e[key]; ok {
		return open
	}
	return depth < defaultOpenDepth
}

// nodeKey identifies n under its parent across snapshots. Documents are
// keyed by path since display names change with disambiguation.
func nodeKey(parent string, n *render.Node) string {
	id := n.Name
	if n.Kind == render.KindDocument && n.Path != "" {
		id = n.Path
	}
	return parent + "/" + n.Kind + ":" + id
}

// flatten lists the visible rows of the tree rooted at root.
func flatten(root *render.Node, exp expansion) []row {
	var rows []row
	var visit func(n *render.Node, parent string, depth int)
	visit = func(n *render.Node, parent string, depth int) {
		k := nodeKey(parent, n)
		open := !n.IsLeaf() && exp.isOpen(k, depth)
		rows = append(rows, row{node: n, key: k, depth: depth, open: open})
		if !open {
			return
		}
		for _, c := range n.Children {
			visit(c, k, depth+1)
		}
	}
	if root != nil {
		visit(root, "", 0)
	}
	return rows
}

// setAll opens or closes every node under root.
func (e expansion) setAll(root *render.Node, open bool) {
	clear(e)
	var visit func(n *render.Node, parent string)
	visit = func(n *render.Node, parent string) {
		if n.IsLeaf() {
			return
		}
		k := nodeKey(parent, n)
		e[k] = open
		for _, c := range n.Children {
			visit(c, k)
		}
	}
	if root != nil {
		visit(root, "")
	}
	if !open && root != nil {
		// Keep the root open so the top level stays visible.
		e[nodeKey("", root)] = true
	}
}
