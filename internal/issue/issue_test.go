// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func allIds() []Id {
	return []Id{
		ProjectRootNotFoundId,
		ConfigLoadFailedId,
		InvalidMappingId,
		InvalidLayoutId,
		NoDocumentsFoundId,
		DocumentUnreadableId,
		TagNotFoundId,
		CacheOpenFailedId,
		ServerStartFailedId,
		WatchFailedId,
	}
}

// stubRender replaces glamour for the duration of a test.
func stubRender(t *testing.T) {
	t.Helper()
	original := render
	t.Cleanup(func() { render = original })
	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds() {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ProjectRootNotFoundId != 1 {
		t.Errorf("ProjectRootNotFoundId = %d, want 1", ProjectRootNotFoundId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ProjectRootNotFoundId, false, "Project root not found"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{InvalidMappingId, false, "Invalid tag mapping"},
		{InvalidLayoutId, false, "Invalid layout"},
		{NoDocumentsFoundId, false, "No documents found"},
		{DocumentUnreadableId, false, "could not be read"},
		{TagNotFoundId, false, "Tag not found"},
		{CacheOpenFailedId, false, "parse cache"},
		{ServerStartFailedId, false, "start the server"},
		{WatchFailedId, false, "File watching failed"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain '%s'", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()
	if len(issues) != len(allIds()) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), len(allIds()))
	}
	for i, issue := range issues {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want ordered ids", i, issue.Id())
		}
	}
}

func TestIssue_Links(t *testing.T) {
	issue := Get(WatchFailedId)
	links := issue.ExtLinks()
	if len(links) != 1 {
		t.Fatalf("ExtLinks() = %v", links)
	}
	links[0] = "mutated"
	if issue.ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks() should return a copy")
	}
	if len(issue.DocLinks()) != 0 {
		t.Errorf("DocLinks() = %v, want none", issue.DocLinks())
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	stubRender(t)

	testIssue := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "See also") {
		t.Error("Render() with links should contain 'See also'")
	}
}

func TestIssue_Render_NoLinks(t *testing.T) {
	stubRender(t)

	testIssue := &Issue{
		id:    Id(9998),
		mdMsg: "# Test Issue\n\nNo links here.",
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestIssue_Render_Glamour(t *testing.T) {
	rendered, err := Get(TagNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "Tag not found") {
		t.Errorf("Render() output should contain the heading, got %q", rendered)
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	stubRender(t)

	for _, issue := range Values() {
		if issue.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}
