// SPDX-License-Identifier: MPL-2.0

package document

import (
	"bufio"
	"io"
	"strings"
)

const (
	storyMetaKey     = "Meta:"
	storyScenarioKey = "Scenario:"
	storyCommentKey  = "!--"
	storyMetaMarker  = "@"
	storyMetaJoin    = ":"
)

// StoryFormat parses JBehave stories.
//
// Every meta property inside a Meta: block becomes a tag: "@key" yields
// "key" and "@key some value" yields "key:some value". The heading is the
// title of the first scenario.
type StoryFormat struct{}

// Parse implements Format.
func (StoryFormat) Parse(r io.Reader) (Parsed, error) {
	var p Parsed
	inMeta := false
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())

		if rest, ok := strings.CutPrefix(line, storyMetaKey); ok {
			inMeta = true
			p.Occurrences = appendMetas(p.Occurrences, rest, lineNo)
			continue
		}

		switch {
		case line == "" || strings.HasPrefix(line, storyCommentKey):
		case inMeta && strings.HasPrefix(line, storyMetaMarker):
			p.Occurrences = appendMetas(p.Occurrences, line, lineNo)
		default:
			inMeta = false
			if title, ok := strings.CutPrefix(line, storyScenarioKey); ok && p.Heading == "" {
				p.Heading = strings.TrimSpace(title)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Parsed{}, err
	}
	return p, nil
}

// metaProperty is one "@key value..." property of a meta line.
type metaProperty struct {
	key    string
	values []string
}

func (m metaProperty) tag() string {
	if len(m.values) == 0 {
		return m.key
	}
	return m.key + storyMetaJoin + strings.Join(m.values, " ")
}

func (m metaProperty) text() string {
	return strings.Join(append([]string{storyMetaMarker + m.key}, m.values...), " ")
}

// parseMetaLine splits a meta line into properties. Text before the first
// "@" is ignored.
func parseMetaLine(line string) []metaProperty {
	var props []metaProperty
	for _, f := range strings.Fields(line) {
		if key, ok := strings.CutPrefix(f, storyMetaMarker); ok {
			props = append(props, metaProperty{key: key})
			continue
		}
		if len(props) > 0 {
			last := &props[len(props)-1]
			last.values = append(last.values, f)
		}
	}
	return props
}

func appendMetas(out []Occurrence, line string, lineNo int) []Occurrence {
	for i, m := range parseMetaLine(line) {
		if m.key == "" {
			continue
		}
		out = append(out, Occurrence{Tag: m.tag(), Site: Site{Line: lineNo, Column: i + 1}})
	}
	return out
}
