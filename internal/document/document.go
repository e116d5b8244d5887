// SPDX-License-Identifier: MPL-2.0

package document

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// RootModule marks a content root backed by a build module.
	RootModule RootKind = iota
	// RootGeneric marks any other content root, including the catch-all.
	RootGeneric
)

type (
	// ID identifies a document by its cleaned, absolute, slash-separated path.
	ID string

	// Site locates a tag inside a document. Column is the 1-based ordinal of
	// the tag on its line.
	Site struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	}

	// Occurrence is a single appearance of a tag in a document.
	Occurrence struct {
		Tag  string `json:"tag"`
		Site Site   `json:"site"`
	}

	// Parsed is the result of reading one document.
	Parsed struct {
		Occurrences []Occurrence `json:"occurrences"`
		// Heading is the document's primary heading, empty when it has none.
		Heading string `json:"heading,omitempty"`
	}

	// RootKind is the kind of a content root.
	RootKind int

	// RootRef names the content root a document belongs to.
	RootRef struct {
		Name string
		Kind RootKind
	}

	// Parser enumerates tags and identifying data of documents.
	//
	// Occurrences reports false when the document cannot be read; an
	// unreadable document has no occurrences.
	Parser interface {
		Occurrences(id ID) ([]Occurrence, bool)
		PrimaryHeading(id ID) (string, bool)
		RelativePath(id ID, projectRoot string) (string, bool)
	}

	// Workspace enumerates the documents of a project and resolves the
	// content root each one belongs to.
	Workspace interface {
		ProjectRoot() string
		Documents() []ID
		Exists(id ID) bool
		ContentRootOf(id ID) (RootRef, bool)
	}
)

// NewID returns the identity of the document at p. Relative paths are
// resolved against the working directory.
func NewID(p string) ID {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return ID(filepath.ToSlash(filepath.Clean(p)))
}

// String returns the slash-separated path.
func (id ID) String() string {
	return string(id)
}

// Path returns the path in the host's separator convention.
func (id ID) Path() string {
	return filepath.FromSlash(string(id))
}

// Base returns the file name of the document.
func (id ID) Base() string {
	return path.Base(string(id))
}

// Ext returns the file name extension, including the dot.
func (id ID) Ext() string {
	return path.Ext(string(id))
}

// Dir returns the slash-separated directory containing the document.
func (id ID) Dir() string {
	return path.Dir(string(id))
}

// String returns "module" or "root".
func (k RootKind) String() string {
	switch k {
	case RootModule:
		return "module"
	case RootGeneric:
		return "root"
	default:
		return "unknown"
	}
}

// RelativeDir returns the path of the document's directory relative to
// projectRoot. It is empty when the document sits directly in the project
// root and false when the document lies outside it.
func RelativeDir(id ID, projectRoot string) (string, bool) {
	root := path.Clean(filepath.ToSlash(projectRoot))
	dir := id.Dir()
	if dir == root {
		return "", true
	}
	prefix := root + "/"
	if root == "/" {
		prefix = root
	}
	if !strings.HasPrefix(dir, prefix) {
		return "", false
	}
	return strings.TrimPrefix(dir, prefix), true
}

// TagNames returns the distinct tag names of occurrences in first-seen order.
func TagNames(occurrences []Occurrence) []string {
	seen := make(map[string]struct{}, len(occurrences))
	names := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		if _, ok := seen[o.Tag]; ok {
			continue
		}
		seen[o.Tag] = struct{}{}
		names = append(names, o.Tag)
	}
	return names
}
