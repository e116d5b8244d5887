// SPDX-License-Identifier: MPL-2.0

package document

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

const (
	gherkinTagMarker     = "@"
	gherkinCommentMarker = "#"
	gherkinFeatureKey    = "Feature:"
)

var docStringFences = []string{`"""`, "```"}

// GherkinFormat parses Gherkin feature files.
//
// Tags are collected from the feature, its rules, scenarios and examples
// tables. Documents the Gherkin parser rejects, typically while being edited,
// are scanned line by line instead so their tags remain visible.
type GherkinFormat struct{}

// Parse implements Format.
func (GherkinFormat) Parse(r io.Reader) (Parsed, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return Parsed{}, err
	}

	doc, err := gherkin.ParseGherkinDocument(bytes.NewReader(src), (&messages.Incrementing{}).NewId)
	if err != nil {
		return scanGherkin(src), nil
	}
	return fromGherkinDocument(doc), nil
}

func fromGherkinDocument(doc *messages.GherkinDocument) Parsed {
	f := doc.Feature
	if f == nil {
		return Parsed{}
	}

	c := &siteCounter{}
	var out []Occurrence
	add := func(tags []*messages.Tag) {
		for _, t := range tags {
			name := strings.TrimPrefix(t.Name, gherkinTagMarker)
			if name == "" {
				continue
			}
			line := 0
			if t.Location != nil {
				line = int(t.Location.Line)
			}
			out = append(out, Occurrence{Tag: name, Site: c.next(line)})
		}
	}
	addScenario := func(s *messages.Scenario) {
		if s == nil {
			return
		}
		add(s.Tags)
		for _, ex := range s.Examples {
			add(ex.Tags)
		}
	}

	add(f.Tags)
	for _, child := range f.Children {
		if child.Rule != nil {
			add(child.Rule.Tags)
			for _, rc := range child.Rule.Children {
				addScenario(rc.Scenario)
			}
			continue
		}
		addScenario(child.Scenario)
	}

	return Parsed{Occurrences: out, Heading: strings.TrimSpace(f.Name)}
}

// scanGherkin extracts tags from every tag line outside doc strings and the
// heading from the first Feature line, without validating the document
// structure.
func scanGherkin(src []byte) Parsed {
	var p Parsed
	c := &siteCounter{}
	fence := ""
	sc := bufio.NewScanner(bytes.NewReader(src))
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if fence != "" {
			if strings.HasPrefix(line, fence) {
				fence = ""
			}
			continue
		}
		switch {
		case openingFence(line) != "":
			fence = openingFence(line)
		case strings.HasPrefix(line, gherkinTagMarker):
			for _, tok := range tagLineTokens(line) {
				if name := strings.TrimPrefix(tok, gherkinTagMarker); name != "" {
					p.Occurrences = append(p.Occurrences, Occurrence{Tag: name, Site: c.next(lineNo)})
				}
			}
		case p.Heading == "" && strings.HasPrefix(line, gherkinFeatureKey):
			p.Heading = strings.TrimSpace(strings.TrimPrefix(line, gherkinFeatureKey))
		}
	}
	return p
}

func openingFence(line string) string {
	for _, f := range docStringFences {
		if strings.HasPrefix(line, f) {
			return f
		}
	}
	return ""
}

// tagLineTokens splits a Gherkin tag line into its @-prefixed tokens,
// stopping at a trailing comment.
func tagLineTokens(line string) []string {
	var tokens []string
	for _, f := range strings.Fields(line) {
		if strings.HasPrefix(f, gherkinCommentMarker) {
			break
		}
		if strings.HasPrefix(f, gherkinTagMarker) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// siteCounter numbers tags on the same line.
type siteCounter struct {
	line   int
	column int
}

func (c *siteCounter) next(line int) Site {
	if line != c.line {
		c.line = line
		c.column = 0
	}
	c.column++
	return Site{Line: line, Column: c.column}
}
