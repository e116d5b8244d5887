// SPDX-License-Identifier: MPL-2.0

package config

import (
	"testing"

	"github.com/tagscope/tagscope/internal/category"
)

func TestDefaultMappings(t *testing.T) {
	t.Parallel()

	mappings, err := DefaultMappings()
	if err != nil {
		t.Fatalf("DefaultMappings() error = %v", err)
	}
	if len(mappings) == 0 {
		t.Fatal("DefaultMappings() is empty")
	}

	r := category.NewRegistry()
	r.PutMappingsFrom(mappings)
	if invalid := r.Invalid(); len(invalid) != 0 {
		t.Errorf("default mappings carry invalid patterns: %v", invalid)
	}

	tests := map[string]string{
		"smoke":    "Test Suite",
		"mobile":   "Device",
		"chrome":   "Browser",
		"ignore":   "Excluded",
		"sitemap":  "Analytics and SEO",
		"WIP":      "Work in Progress",
		"PROJ-123": "Jira",
	}
	for tag, want := range tests {
		if got, ok := r.CategoryOf(tag); !ok || got != want {
			t.Errorf("CategoryOf(%q) = %q, %v, want %q", tag, got, ok, want)
		}
	}
	if _, ok := r.CategoryOf("proj-123"); ok {
		t.Error("lower-case ticket ids should not match the Jira pattern")
	}

	mappings[0].Category = "mutated"
	again, _ := DefaultMappings()
	if again[0].Category == "mutated" {
		t.Error("DefaultMappings() should return a copy")
	}
}

func TestMappingScopes(t *testing.T) {
	t.Parallel()

	app := []category.Mapping{{Category: "App", Tags: "smoke"}}
	project := &ProjectFile{
		UseProjectMappings: true,
		Mappings:           []category.Mapping{{Category: "Project", Tags: "smoke"}},
	}

	tests := []struct {
		name       string
		defaults   bool
		app        []category.Mapping
		project    *ProjectFile
		wantScopes int
		wantSmoke  string
	}{
		{"all scopes", true, app, project, 3, "Project"},
		{"no project", true, app, &ProjectFile{}, 2, "App"},
		{"defaults only", true, nil, nil, 1, "Test Suite"},
		{"nothing", false, nil, nil, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.UseDefaultMappings = tt.defaults
			cfg.Mappings = tt.app

			scopes, err := MappingScopes(cfg, tt.project)
			if err != nil {
				t.Fatal(err)
			}
			if len(scopes) != tt.wantScopes {
				t.Fatalf("MappingScopes() returned %d scopes, want %d", len(scopes), tt.wantScopes)
			}

			r := category.NewRegistry()
			for _, s := range scopes {
				r.PutMappingsFrom(s)
			}
			got, _ := r.CategoryOf("smoke")
			if got != tt.wantSmoke {
				t.Errorf("smoke category = %q, want %q", got, tt.wantSmoke)
			}
		})
	}
}
