// SPDX-License-Identifier: MPL-2.0

package render

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/tagscope/tagscope/internal/tagtree"
)

type (
	// CategoryStats aggregates one category across all holders.
	CategoryStats struct {
		Name        string `json:"name" yaml:"name"`
		Tags        int    `json:"tags" yaml:"tags"`
		Occurrences int    `json:"occurrences" yaml:"occurrences"`
	}

	// TagStats aggregates one tag of a category across all holders.
	TagStats struct {
		Name        string `json:"name" yaml:"name"`
		Category    string `json:"category" yaml:"category"`
		Documents   int    `json:"documents" yaml:"documents"`
		Occurrences int    `json:"occurrences" yaml:"occurrences"`
	}

	// Stats is the statistics report of a snapshot.
	Stats struct {
		Layout     tagtree.LayoutKind `json:"layout" yaml:"layout"`
		Summary    tagtree.Summary    `json:"summary" yaml:"summary"`
		Categories []CategoryStats    `json:"categories" yaml:"categories"`
		// Tags is ordered by occurrences, most frequent first.
		Tags []TagStats `json:"tags" yaml:"tags"`
	}

	// ReportOptions configures RenderReport.
	ReportOptions struct {
		// Width wraps the rendered report; zero disables wrapping.
		Width int
		// Plain renders without colors, for pipes and tests.
		Plain bool
	}
)

// Collect aggregates the snapshot by category and tag name.
func Collect(s *Snapshot) Stats {
	type catAcc struct {
		tags        map[string]struct{}
		occurrences int
	}
	type tagAcc struct {
		docs        map[string]struct{}
		occurrences int
	}
	cats := make(map[string]*catAcc)
	tags := make(map[[2]string]*tagAcc)

	s.Root.Walk(func(n *Node, _ int) bool {
		if n.Kind != KindCategory {
			return true
		}
		ca := cats[n.Name]
		if ca == nil {
			ca = &catAcc{tags: make(map[string]struct{})}
			cats[n.Name] = ca
		}
		ca.occurrences += n.Count
		for _, t := range n.Children {
			ca.tags[t.Name] = struct{}{}
			key := [2]string{n.Name, t.Name}
			ta := tags[key]
			if ta == nil {
				ta = &tagAcc{docs: make(map[string]struct{})}
				tags[key] = ta
			}
			ta.occurrences += t.Count
			for _, d := range t.Children {
				ta.docs[d.Path] = struct{}{}
			}
		}
		return false
	})

	out := Stats{Layout: s.Layout, Summary: s.Summary}
	for name, ca := range cats {
		out.Categories = append(out.Categories, CategoryStats{Name: name, Tags: len(ca.tags), Occurrences: ca.occurrences})
	}
	slices.SortFunc(out.Categories, func(a, b CategoryStats) int {
		if ao, bo := a.Name == tagtree.OtherCategory, b.Name == tagtree.OtherCategory; ao != bo {
			if ao {
				return 1
			}
			return -1
		}
		return tagtree.CompareNames(a.Name, b.Name)
	})
	for key, ta := range tags {
		out.Tags = append(out.Tags, TagStats{Name: key[1], Category: key[0], Documents: len(ta.docs), Occurrences: ta.occurrences})
	}
	slices.SortFunc(out.Tags, func(a, b TagStats) int {
		return cmp.Or(
			cmp.Compare(b.Occurrences, a.Occurrences),
			tagtree.CompareNames(a.Name, b.Name),
			tagtree.CompareNames(a.Category, b.Category),
		)
	})
	return out
}

// Report renders st as markdown. top limits the tag table; zero lists every
// tag.
func Report(st Stats, top int) string {
	var sb strings.Builder
	sb.WriteString("# Tag statistics\n\n")
	fmt.Fprintf(&sb, "Layout: **%s**\n\n", st.Layout)
	sb.WriteString("| Distinct tags | Documents | Occurrences |\n")
	sb.WriteString("|---:|---:|---:|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d |\n\n", st.Summary.Tags, st.Summary.Documents, st.Summary.Occurrences)

	if len(st.Categories) == 0 {
		sb.WriteString("No tags found.\n")
		return sb.String()
	}

	sb.WriteString("## Categories\n\n")
	sb.WriteString("| Category | Tags | Occurrences |\n")
	sb.WriteString("|---|---:|---:|\n")
	for _, c := range st.Categories {
		fmt.Fprintf(&sb, "| %s | %d | %d |\n", escapeMarkdown(c.Name), c.Tags, c.Occurrences)
	}

	tags := st.Tags
	heading := "## Tags"
	if top > 0 && len(tags) > top {
		tags = tags[:top]
		heading = fmt.Sprintf("## Top %d tags", top)
	}
	sb.WriteString("\n" + heading + "\n\n")
	sb.WriteString("| Tag | Category | Documents | Occurrences |\n")
	sb.WriteString("|---|---|---:|---:|\n")
	for _, t := range tags {
		fmt.Fprintf(&sb, "| %s | %s | %d | %d |\n", escapeMarkdown(t.Name), escapeMarkdown(t.Category), t.Documents, t.Occurrences)
	}
	return sb.String()
}

// RenderReport renders markdown for the terminal with glamour.
func RenderReport(md string, opts ReportOptions) (string, error) {
	var rendererOpts []glamour.TermRendererOption
	if opts.Plain {
		rendererOpts = append(rendererOpts, glamour.WithStandardStyle("notty"))
	} else {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	}
	if opts.Width > 0 {
		rendererOpts = append(rendererOpts, glamour.WithWordWrap(opts.Width))
	}

	renderer, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
