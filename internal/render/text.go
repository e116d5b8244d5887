// SPDX-License-Identifier: MPL-2.0

package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/tagscope/tagscope/internal/tagtree"
)

// Palette shared by rendered trees and CLI messages. Tuned for dark
// backgrounds.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

type (
	// Theme styles each node kind of a rendered tree.
	Theme struct {
		Root        lipgloss.Style
		ContentRoot lipgloss.Style
		Category    lipgloss.Style
		Other       lipgloss.Style
		Tag         lipgloss.Style
		Document    lipgloss.Style
		Enumerator  lipgloss.Style
		// Icons maps a content root icon hint to the glyph shown before
		// its label.
		Icons map[string]string
	}

	// TextOptions configures Text.
	TextOptions struct {
		Theme Theme
		// MaxDepth limits how deep the tree is rendered; zero renders
		// everything. The root is depth zero.
		MaxDepth int
	}
)

// DefaultTheme returns the colored theme used on the local terminal.
func DefaultTheme() Theme {
	return ThemeFor(lipgloss.DefaultRenderer())
}

// ThemeFor returns the colored theme bound to r. SSH sessions pass their
// own renderer so colors follow the remote terminal.
func ThemeFor(r *lipgloss.Renderer) Theme {
	return Theme{
		Root:        r.NewStyle().Bold(true).Foreground(ColorPrimary),
		ContentRoot: r.NewStyle().Bold(true).Foreground(ColorHighlight),
		Category:    r.NewStyle().Foreground(ColorSuccess),
		Other:       r.NewStyle().Foreground(ColorWarning),
		Tag:         r.NewStyle(),
		Document:    r.NewStyle().Foreground(ColorMuted),
		Enumerator:  r.NewStyle().Foreground(ColorMuted).PaddingRight(1),
		Icons: map[string]string{
			tagtree.IconModule: "📦 ",
			tagtree.IconFolder: "📁 ",
		},
	}
}

// PlainTheme returns an unstyled theme without icons.
func PlainTheme() Theme {
	return Theme{Enumerator: lipgloss.NewStyle().PaddingRight(1)}
}

// Label returns the styled label of n, prefixed with its icon.
func (th Theme) Label(n *Node) string {
	switch n.Kind {
	case KindRoot:
		return th.Root.Render(n.Label)
	case KindContentRoot:
		return th.Icons[n.Icon] + th.ContentRoot.Render(n.Label)
	case KindCategory:
		if n.Name == tagtree.OtherCategory {
			return th.Other.Render(n.Label)
		}
		return th.Category.Render(n.Label)
	case KindTag:
		return th.Tag.Render(n.Label)
	default:
		return th.Document.Render(n.Label)
	}
}

// Text writes the snapshot as an indented tree.
func Text(w io.Writer, s *Snapshot, opts TextOptions) error {
	_, err := fmt.Fprintln(w, TextString(s, opts))
	return err
}

// TextString renders the snapshot as an indented tree.
func TextString(s *Snapshot, opts TextOptions) string {
	return toTree(s.Root, opts, 0).String()
}

func toTree(n *Node, opts TextOptions, depth int) *tree.Tree {
	t := tree.Root(opts.Theme.Label(n)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(opts.Theme.Enumerator)
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return t
	}
	for _, c := range n.Children {
		if c.IsLeaf() || (opts.MaxDepth > 0 && depth+1 >= opts.MaxDepth) {
			t.Child(opts.Theme.Label(c))
			continue
		}
		t.Child(toTree(c, opts, depth+1))
	}
	return t
}
