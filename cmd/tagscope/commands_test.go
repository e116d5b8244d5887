// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/issue"
	"github.com/tagscope/tagscope/internal/render"
	"github.com/tagscope/tagscope/internal/tagtree"
	"github.com/tagscope/tagscope/internal/testutil"
)

const testConfig = `use_default_mappings: false
log_level: "error"
cache: enabled: false
mappings: [
	{category: "Suite", tags: "smoke, regression"},
]
`

const (
	loginFeature = `@smoke @wip
Feature: Login

  @smoke
  Scenario: valid credentials
    Given a registered user
`
	searchFeature = `@regression
Feature: Search

  Scenario: empty query
    Given the search page
`
)

// newTestProject writes a project with two documents and a config file
// outside of it. It returns the project dir and the config path.
func newTestProject(t *testing.T) (string, string) {
	t.Helper()

	base := t.TempDir()
	dir := filepath.Join(base, "project")
	testutil.MustWriteFile(t, filepath.Join(dir, "features", "login.feature"), loginFeature)
	testutil.MustWriteFile(t, filepath.Join(dir, "features", "search.feature"), searchFeature)

	cfgPath := filepath.Join(base, "config.cue")
	testutil.MustWriteFile(t, cfgPath, testConfig)
	return dir, cfgPath
}

// runCLI executes the command tree with buffered output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err = root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func issueID(err error) (issue.Id, bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.CatalogIssue() == nil {
		return 0, false
	}
	return ae.CatalogIssue().Id(), true
}

func TestTreeCommand_JSON(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	stdout, _, err := runCLI(t, "--config", cfgPath, "tree", "--layout", "flat", "--output", "json", dir)
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}

	var snap render.Snapshot
	if err := json.Unmarshal([]byte(stdout), &snap); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if snap.Layout != tagtree.LayoutFlat {
		t.Errorf("Layout = %q, want %q", snap.Layout, tagtree.LayoutFlat)
	}
	want := tagtree.Summary{Tags: 3, Documents: 2, Occurrences: 4}
	if snap.Summary != want {
		t.Errorf("Summary = %+v, want %+v", snap.Summary, want)
	}

	var categories []string
	for _, n := range snap.Root.Children {
		categories = append(categories, n.Name)
	}
	if got := strings.Join(categories, ","); got != "Other,Suite" {
		t.Errorf("categories = %q, want %q", got, "Other,Suite")
	}
}

func TestTreeCommand_Text(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	stdout, _, err := runCLI(t, "--config", cfgPath, "tree", "--layout", "flat", "--stats", "disabled", dir)
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	for _, want := range []string{"Suite", "smoke", "regression", "wip", "login.feature"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("tree output missing %q:\n%s", want, stdout)
		}
	}
}

func TestTreeCommand_InvalidFlags(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"output", []string{"tree", "--output", "xml", dir}, render.ErrInvalidFormat},
		{"layout", []string{"tree", "--layout", "nested", dir}, tagtree.ErrInvalidLayout},
		{"stats", []string{"tree", "--stats", "verbose", dir}, tagtree.ErrInvalidStatistics},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := runCLI(t, append([]string{"--config", cfgPath}, tt.args...)...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTreeCommand_NoDocuments(t *testing.T) {
	t.Parallel()

	_, cfgPath := newTestProject(t)
	_, _, err := runCLI(t, "--config", cfgPath, "tree", t.TempDir())
	if id, ok := issueID(err); !ok || id != issue.NoDocumentsFoundId {
		t.Errorf("error = %v, want NoDocumentsFound issue", err)
	}
}

func TestTreeCommand_MissingConfig(t *testing.T) {
	t.Parallel()

	dir, _ := newTestProject(t)
	_, _, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.cue"), "tree", dir)
	if id, ok := issueID(err); !ok || id != issue.ConfigLoadFailedId {
		t.Errorf("error = %v, want ConfigLoadFailed issue", err)
	}
}

func TestStatsCommand(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "--config", cfgPath, "stats", "--format", "markdown", dir)
		if err != nil {
			t.Fatalf("stats error = %v", err)
		}
		for _, want := range []string{"# Tag statistics", "| smoke | Suite | 1 | 2 |", "| wip | Other | 1 | 1 |"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("report missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("json top", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "--config", cfgPath, "stats", "--format", "json", "--top", "1", dir)
		if err != nil {
			t.Fatalf("stats error = %v", err)
		}
		var st render.Stats
		if err := json.Unmarshal([]byte(stdout), &st); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(st.Tags) != 1 || st.Tags[0].Name != "smoke" {
			t.Errorf("Tags = %+v, want only smoke", st.Tags)
		}
	})

	t.Run("styled", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "--config", cfgPath, "stats", dir)
		if err != nil {
			t.Fatalf("stats error = %v", err)
		}
		if !strings.Contains(stdout, "smoke") {
			t.Errorf("styled report missing tag:\n%s", stdout)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		if _, _, err := runCLI(t, "--config", cfgPath, "stats", "--format", "html", dir); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestTagsRemoveCommand(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	stdout, _, err := runCLI(t, "--config", cfgPath, "tags", "remove", "@smoke", dir, "--yes")
	if err != nil {
		t.Fatalf("tags remove error = %v", err)
	}
	if !strings.Contains(stdout, "Removed 2 occurrence(s)") {
		t.Errorf("output = %q, want removal summary", stdout)
	}

	data, err := os.ReadFile(filepath.Join(dir, "features", "login.feature"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := string(data)
	if strings.Contains(got, "@smoke") {
		t.Errorf("@smoke still present:\n%s", got)
	}
	if !strings.HasPrefix(got, "@wip\nFeature: Login") {
		t.Errorf("feature tag line not rewritten:\n%s", got)
	}
	if !strings.Contains(got, "Scenario: valid credentials") {
		t.Errorf("scenario lost:\n%s", got)
	}
}

func TestTagsRemoveCommand_DryRun(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	stdout, _, err := runCLI(t, "--config", cfgPath, "tags", "remove", "wip", dir, "--dry-run")
	if err != nil {
		t.Fatalf("tags remove error = %v", err)
	}
	if !strings.Contains(stdout, filepath.ToSlash(filepath.Join("features", "login.feature"))) {
		t.Errorf("dry run should list the document:\n%s", stdout)
	}
	data, err := os.ReadFile(filepath.Join(dir, "features", "login.feature"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != loginFeature {
		t.Error("dry run modified the document")
	}
}

func TestTagsRemoveCommand_NotFound(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	_, _, err := runCLI(t, "--config", cfgPath, "tags", "remove", "flaky", dir, "--yes")
	if id, ok := issueID(err); !ok || id != issue.TagNotFoundId {
		t.Errorf("error = %v, want TagNotFound issue", err)
	}
}

func TestTagsCategoryCommand(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	stdout, _, err := runCLI(t, "--config", cfgPath, "tags", "category", "--dir", dir, "@smoke", "wip")
	if err != nil {
		t.Fatalf("tags category error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "@smoke\t") || !strings.Contains(lines[0], "Suite") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "@wip\t") || !strings.Contains(lines[1], tagtree.OtherCategory) {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	_, cfgPath := newTestProject(t)

	t.Run("path", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "--config", cfgPath, "config", "path")
		if err != nil {
			t.Fatalf("config path error = %v", err)
		}
		if strings.TrimSpace(stdout) != cfgPath {
			t.Errorf("config path = %q, want %q", strings.TrimSpace(stdout), cfgPath)
		}
	})

	t.Run("show", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "--config", cfgPath, "config", "show")
		if err != nil {
			t.Fatalf("config show error = %v", err)
		}
		for _, want := range []string{cfgPath, "use_default_mappings: false", "Suite: smoke, regression"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("config show missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("init", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "config.cue")
		stdout, _, err := runCLI(t, "--config", path, "config", "init")
		if err != nil {
			t.Fatalf("config init error = %v", err)
		}
		if !strings.Contains(stdout, "Created default configuration") {
			t.Errorf("output = %q", stdout)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("config file not written: %v", err)
		}

		stdout, _, err = runCLI(t, "--config", path, "config", "init")
		if err != nil {
			t.Fatalf("second config init error = %v", err)
		}
		if !strings.Contains(stdout, "already exists") {
			t.Errorf("second init output = %q", stdout)
		}
	})
}

func TestServeCommand_NothingToServe(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "serve", "--no-ssh", "--no-http")
	if !errors.Is(err, errNothingToServe) {
		t.Errorf("error = %v, want %v", err, errNothingToServe)
	}
}

func TestBrowseCommand_NotInteractive(t *testing.T) {
	t.Parallel()

	dir, cfgPath := newTestProject(t)
	_, _, err := runCLI(t, "--config", cfgPath, "browse", dir)
	if !errors.Is(err, errNotInteractive) {
		t.Errorf("error = %v, want %v", err, errNotInteractive)
	}
}

func TestDescribeUpdate(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 4, 9, 15, 30, 0, time.UTC)
	tests := []struct {
		name string
		u    engine.Update
		want string
	}{
		{
			name: "rescan",
			u:    engine.Update{Time: at, Rescan: true, Documents: []document.ID{"/p/a.feature", "/p/b.feature"}},
			want: "09:15:30 rescanned 2 document(s)",
		},
		{
			name: "batch",
			u:    engine.Update{Time: at, Result: engine.BatchResult{Updated: 3}},
			want: "09:15:30 updated 3 document(s)",
		},
		{
			name: "batch with deletions",
			u:    engine.Update{Time: at, Result: engine.BatchResult{Updated: 1, Deleted: 2}},
			want: "09:15:30 updated 1 document(s), removed 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := describeUpdate(tt.u); got != tt.want {
				t.Errorf("describeUpdate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty() = %q, want %q", got, "b")
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}
