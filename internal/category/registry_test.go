// SPDX-License-Identifier: MPL-2.0

package category

import (
	"slices"
	"testing"
)

func TestRegistry_CategoryOf(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.PutMappingsFrom([]Mapping{
		{Category: "Device", Tags: "mobile, desktop ,tablet"},
		{Category: "Jira", Tags: "#^[A-Z]+-[0-9]+$"},
		{Category: "Browser", Tags: "chrome,,firefox"},
	})

	tests := []struct {
		name     string
		tag      string
		expected string
		found    bool
	}{
		{name: "exact", tag: "mobile", expected: "Device", found: true},
		{name: "trimmed token", tag: "desktop", expected: "Device", found: true},
		{name: "regex", tag: "JIRA-123", expected: "Jira", found: true},
		{name: "regex needs full match", tag: "xJIRA-123", found: false},
		{name: "blank token skipped", tag: "", found: false},
		{name: "unmapped", tag: "smoke", found: false},
		{name: "case sensitive", tag: "Mobile", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := r.CategoryOf(tt.tag)
			if ok != tt.found {
				t.Fatalf("CategoryOf(%q) found = %v, want %v", tt.tag, ok, tt.found)
			}
			if got != tt.expected {
				t.Errorf("CategoryOf(%q) = %q, want %q", tt.tag, got, tt.expected)
			}
		})
	}
}

func TestRegistry_ExactOverwrite(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.PutMappingsFrom([]Mapping{{Category: "App", Tags: "smoke"}})
	r.PutMappingsFrom([]Mapping{{Category: "Project", Tags: "smoke"}})

	if got, _ := r.CategoryOf("smoke"); got != "Project" {
		t.Errorf("CategoryOf(smoke) = %q, want later mapping %q", got, "Project")
	}
}

func TestRegistry_ExactBeatsPattern(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.PutMappingsFrom([]Mapping{
		{Category: "Pattern", Tags: "#^s.*$"},
		{Category: "Exact", Tags: "smoke"},
	})

	if got, _ := r.CategoryOf("smoke"); got != "Exact" {
		t.Errorf("CategoryOf(smoke) = %q, want %q", got, "Exact")
	}
	if got, _ := r.CategoryOf("sanity"); got != "Pattern" {
		t.Errorf("CategoryOf(sanity) = %q, want %q", got, "Pattern")
	}
}

func TestRegistry_PatternPrecedence(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.PutMappingsFrom([]Mapping{{Category: "A", Tags: "#^X.*$"}})
	r.PutMappingsFrom([]Mapping{{Category: "B", Tags: "#^X.*$"}})

	if got, _ := r.CategoryOf("X1"); got != "A" {
		t.Fatalf("CategoryOf(X1) = %q, want first inserted %q", got, "A")
	}

	// Rebuild without A's entries.
	r.Dispose()
	r.PutMappingsFrom([]Mapping{{Category: "B", Tags: "#^X.*$"}})

	if got, _ := r.CategoryOf("X1"); got != "B" {
		t.Errorf("CategoryOf(X1) after rebuild = %q, want %q", got, "B")
	}
}

func TestRegistry_InvalidPatternNeverMatches(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.PutMappingsFrom([]Mapping{
		{Category: "Broken", Tags: "#[unclosed"},
		{Category: "Any", Tags: "#.*"},
	})

	if got, _ := r.CategoryOf("[unclosed"); got != "Any" {
		t.Errorf("CategoryOf([unclosed) = %q, want %q", got, "Any")
	}
	if invalid := r.Invalid(); !slices.Equal(invalid, []string{"#[unclosed"}) {
		t.Errorf("Invalid() = %v, want [#[unclosed]", invalid)
	}
}

func TestRegistry_Dispose(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.PutMappingsFrom([]Mapping{{Category: "Device", Tags: "mobile,#^m.*"}})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	r.Dispose()

	if _, ok := r.CategoryOf("mobile"); ok {
		t.Error("CategoryOf(mobile) found a category after Dispose")
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Dispose = %d, want 0", r.Len())
	}
}

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	re, err := CompilePattern("#a|b")
	if err != nil {
		t.Fatalf("CompilePattern() error = %v", err)
	}
	if re.MatchString("ab") {
		t.Error("anchored alternation matched \"ab\"")
	}
	if !re.MatchString("b") {
		t.Error("anchored alternation did not match \"b\"")
	}
}
