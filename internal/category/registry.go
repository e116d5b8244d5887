// SPDX-License-Identifier: MPL-2.0

package category

import (
	"regexp"
	"strings"
)

const (
	// RegexPrefix marks a mapping token as a regular expression.
	RegexPrefix = "#"

	// TokenSeparator separates tag tokens within a single mapping entry.
	TokenSeparator = ","
)

type (
	// Mapping assigns a comma-separated list of tag tokens to a category.
	Mapping struct {
		Category string `json:"category" mapstructure:"category" toml:"category"`
		Tags     string `json:"tags" mapstructure:"tags" toml:"tags"`
	}

	// Registry resolves tag names to category names.
	//
	// A Registry is not safe for concurrent mutation. Callers serialize
	// PutMappingsFrom and Dispose with lookups the same way they serialize
	// tree mutations.
	Registry struct {
		exact    map[string]string
		patterns []pattern
		invalid  []string
	}

	pattern struct {
		token    string
		category string
		re       *regexp.Regexp
	}
)

// NewRegistry returns an empty registry. Every tag resolves to no category
// until mappings are added.
func NewRegistry() *Registry {
	return &Registry{exact: make(map[string]string)}
}

// IsPattern reports whether token is a regex mapping token.
func IsPattern(token string) bool {
	return strings.HasPrefix(token, RegexPrefix)
}

// CompilePattern compiles a regex mapping token. The expression is anchored
// so that it has to match the entire tag name.
func CompilePattern(token string) (*regexp.Regexp, error) {
	expr := strings.TrimPrefix(token, RegexPrefix)
	return regexp.Compile("^(?:" + expr + ")$")
}

// PutMappingsFrom inserts every token of every mapping, in order.
//
// Exact tokens overwrite any earlier mapping for the same token. Pattern
// tokens are appended, so for patterns the earliest insertion wins. Blank
// tokens are skipped. Patterns that fail to compile are recorded (see
// Invalid) and never match.
func (r *Registry) PutMappingsFrom(mappings []Mapping) {
	for _, m := range mappings {
		for raw := range strings.SplitSeq(m.Tags, TokenSeparator) {
			token := strings.TrimSpace(raw)
			if token == "" {
				continue
			}
			r.put(token, m.Category)
		}
	}
}

func (r *Registry) put(token, categoryName string) {
	if !IsPattern(token) {
		r.exact[token] = categoryName
		return
	}

	re, err := CompilePattern(token)
	if err != nil {
		r.invalid = append(r.invalid, token)
	}
	r.patterns = append(r.patterns, pattern{token: token, category: categoryName, re: re})
}

// CategoryOf returns the category configured for tagName, or false when no
// mapping applies. The caller falls back to the Other category.
func (r *Registry) CategoryOf(tagName string) (string, bool) {
	if name, ok := r.exact[tagName]; ok {
		return name, true
	}
	for _, p := range r.patterns {
		if p.re != nil && p.re.MatchString(tagName) {
			return p.category, true
		}
	}
	return "", false
}

// Invalid returns the pattern tokens that could not be compiled.
func (r *Registry) Invalid() []string {
	out := make([]string, len(r.invalid))
	copy(out, r.invalid)
	return out
}

// Len returns the number of exact and pattern entries.
func (r *Registry) Len() int {
	return len(r.exact) + len(r.patterns)
}

// Dispose clears every mapping. The registry stays usable and must be
// repopulated before lookups return anything again.
func (r *Registry) Dispose() {
	clear(r.exact)
	r.patterns = nil
	r.invalid = nil
}
