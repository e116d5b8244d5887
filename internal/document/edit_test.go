// SPDX-License-Identifier: MPL-2.0

package document

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveTag_Gherkin(t *testing.T) {
	t.Parallel()

	src := "@smoke @wip\nFeature: F\n  @wip\n  Scenario: S\n    Given x\n\n  @mobile @wip # keep me\n  Scenario: T\n    Given y\n"
	want := "@smoke\nFeature: F\n  Scenario: S\n    Given x\n\n  @mobile # keep me\n  Scenario: T\n    Given y\n"

	id := writeFile(t, filepath.Join(t.TempDir(), "f.feature"), src)

	n, err := RemoveTag(id, "wip")
	if err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}

	got, err := os.ReadFile(id.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Errorf("content =\n%s\nwant\n%s", got, want)
	}
}

func TestRemoveTag_Story(t *testing.T) {
	t.Parallel()

	src := "Meta:\n@Suite smoke\n@Disabled\n\nScenario: S\nMeta: @Disabled @Device mobile\nGiven x\n"
	want := "Meta:\n@Suite smoke\n\nScenario: S\nMeta: @Device mobile\nGiven x\n"

	id := writeFile(t, filepath.Join(t.TempDir(), "s.story"), src)

	n, err := RemoveTag(id, "Disabled")
	if err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}

	got, err := os.ReadFile(id.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Errorf("content =\n%s\nwant\n%s", got, want)
	}
}

func TestRemoveTag_NoMatchLeavesFile(t *testing.T) {
	t.Parallel()

	src := "@a\r\nFeature: F\r\n"
	id := writeFile(t, filepath.Join(t.TempDir(), "f.feature"), src)

	n, err := RemoveTag(id, "b")
	if err != nil || n != 0 {
		t.Fatalf("RemoveTag() = %d, %v, want 0, nil", n, err)
	}
	got, _ := os.ReadFile(id.Path())
	if string(got) != src {
		t.Errorf("content changed: %q", got)
	}
}

func TestRewriteLines_PreservesCRLF(t *testing.T) {
	t.Parallel()

	out := rewriteLines("a\r\nb\r\nc", func(line string) (string, bool) {
		return line, line != "b"
	})
	if out != "a\r\nc" {
		t.Errorf("rewriteLines() = %q, want %q", out, "a\r\nc")
	}
}

func TestRemoveTag_GherkinKeepsStepContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		want    string
		removed int
	}{
		{
			name:    "doc string",
			src:     "@smoke\nFeature: F\n  Scenario: S\n    Given text\n      \"\"\"\n      @smoke\n      \"\"\"\n",
			want:    "Feature: F\n  Scenario: S\n    Given text\n      \"\"\"\n      @smoke\n      \"\"\"\n",
			removed: 1,
		},
		{
			name:    "backtick doc string in a broken document",
			src:     "@smoke @wip\nFeature: F\n  Given orphan step\n    ```\n    @smoke\n    ```\nFeature: G\n",
			want:    "@wip\nFeature: F\n  Given orphan step\n    ```\n    @smoke\n    ```\nFeature: G\n",
			removed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id := writeFile(t, filepath.Join(t.TempDir(), "f.feature"), tt.src)
			n, err := RemoveTag(id, "smoke")
			if err != nil {
				t.Fatalf("RemoveTag() error = %v", err)
			}
			if n != tt.removed {
				t.Errorf("removed = %d, want %d", n, tt.removed)
			}

			got, err := os.ReadFile(id.Path())
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("content =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}
