// SPDX-License-Identifier: MPL-2.0

package document

import (
	"fmt"
	"os"
	"strings"
)

// RemoveTag deletes every occurrence of tag from the document on disk and
// returns how many were removed. Tag lines and meta lines left without any
// tag are dropped; everything else is written back untouched. The file is
// not rewritten when nothing matched.
func RemoveTag(id ID, tag string) (int, error) {
	info, err := os.Stat(id.Path())
	if err != nil {
		return 0, err
	}
	src, err := os.ReadFile(id.Path())
	if err != nil {
		return 0, err
	}

	var (
		out     string
		removed int
	)
	switch strings.ToLower(id.Ext()) {
	case FeatureExt:
		out, removed = removeGherkinTag(string(src), tag)
	case StoryExt:
		out, removed = removeStoryMeta(string(src), tag)
	default:
		return 0, fmt.Errorf("%s: %w", id, ErrUnsupportedFormat)
	}

	if removed == 0 {
		return 0, nil
	}
	if err := os.WriteFile(id.Path(), []byte(out), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return removed, nil
}

// removeGherkinTag drops the tag tokens the parser reports for tag, so text
// that only looks like a tag, such as doc string content, stays untouched.
func removeGherkinTag(src, tag string) (string, int) {
	parsed, _ := GherkinFormat{}.Parse(strings.NewReader(src))
	sites := make(map[Site]bool)
	for _, o := range parsed.Occurrences {
		if o.Tag == tag {
			sites[o.Site] = true
		}
	}
	if len(sites) == 0 {
		return src, 0
	}

	removed := 0
	lineNo := 0
	out := rewriteLines(src, func(line string) (string, bool) {
		lineNo++
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, gherkinTagMarker) {
			return line, true
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		var kept []string
		comment := ""
		hits := 0
		column := 0
		fields := strings.Fields(trimmed)
		for i, f := range fields {
			if strings.HasPrefix(f, gherkinCommentMarker) {
				comment = strings.Join(fields[i:], " ")
				break
			}
			if name, ok := strings.CutPrefix(f, gherkinTagMarker); ok && name != "" {
				column++
				if sites[Site{Line: lineNo, Column: column}] {
					hits++
					continue
				}
			}
			kept = append(kept, f)
		}

		if hits == 0 {
			return line, true
		}
		removed += hits
		if len(kept) == 0 && comment == "" {
			return "", false
		}
		if comment != "" {
			kept = append(kept, comment)
		}
		return indent + strings.Join(kept, " "), true
	})
	return out, removed
}

func removeStoryMeta(src, tag string) (string, int) {
	removed := 0
	inMeta := false
	out := rewriteLines(src, func(line string) (string, bool) {
		trimmed := strings.TrimSpace(line)
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

		prefix := ""
		metas := ""
		switch {
		case strings.HasPrefix(trimmed, storyMetaKey):
			inMeta = true
			prefix = storyMetaKey
			metas = strings.TrimPrefix(trimmed, storyMetaKey)
		case trimmed == "" || strings.HasPrefix(trimmed, storyCommentKey):
			return line, true
		case inMeta && strings.HasPrefix(trimmed, storyMetaMarker):
			metas = trimmed
		default:
			inMeta = false
			return line, true
		}

		props := parseMetaLine(metas)
		kept := make([]string, 0, len(props))
		for _, m := range props {
			if m.key != "" && m.tag() == tag {
				removed++
				continue
			}
			kept = append(kept, m.text())
		}
		if len(kept) == len(props) {
			return line, true
		}
		if prefix != "" {
			return indent + strings.TrimSpace(prefix+" "+strings.Join(kept, " ")), true
		}
		if len(kept) == 0 {
			return "", false
		}
		return indent + strings.Join(kept, " "), true
	})
	return out, removed
}

// rewriteLines applies fn to every line of src, preserving line endings.
// Lines for which fn reports false are dropped.
func rewriteLines(src string, fn func(line string) (string, bool)) string {
	var b strings.Builder
	b.Grow(len(src))
	for rest := src; rest != ""; {
		line, tail, found := strings.Cut(rest, "\n")
		rest = tail

		eol := ""
		if found {
			eol = "\n"
		}
		if cr, ok := strings.CutSuffix(line, "\r"); ok {
			line = cr
			eol = "\r" + eol
		}

		if out, keep := fn(line); keep {
			b.WriteString(out)
			b.WriteString(eol)
		}
	}
	return b.String()
}
