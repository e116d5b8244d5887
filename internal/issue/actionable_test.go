// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableErrorError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation", &ActionableError{Operation: "scan documents"}, "failed to scan documents"},
		{
			"resource",
			&ActionableError{Operation: "load project configuration", Resource: "/repo/.tagscope.cue"},
			"failed to load project configuration: /repo/.tagscope.cue",
		},
		{
			"cause",
			&ActionableError{Operation: "open parse cache", Cause: errors.New("locked")},
			"failed to open parse cache: locked",
		},
		{
			"all",
			&ActionableError{Operation: "remove tag", Resource: "wip", Cause: errors.New("read-only file")},
			"failed to remove tag: wip: read-only file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := WrapWithContext(fmt.Errorf("stat: %w", fs.ErrNotExist), "read project configuration", "/repo")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should see through the cause chain")
	}

	var ae *ActionableError
	wrapped := fmt.Errorf("tree: %w", err)
	if !errors.As(wrapped, &ae) || ae.Resource != "/repo" {
		t.Errorf("errors.As() = %v", ae)
	}

	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
}

func TestActionableErrorFormat(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	err := NewErrorContext().
		WithOperation("watch documents").
		WithResource("/repo").
		WithSuggestion("Raise the inotify watch limit").
		WithSuggestion("Use 'tagscope tree' for a one-off view").
		Wrap(fmt.Errorf("add watch: %w", root)).
		Build()

	plain := err.Format(false)
	if !strings.HasPrefix(plain, "failed to watch documents: /repo: add watch: permission denied") {
		t.Errorf("Format(false) = %q", plain)
	}
	if strings.Index(plain, "inotify") > strings.Index(plain, "one-off") {
		t.Error("suggestions should keep insertion order")
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("non-verbose output should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. add watch: permission denied", "2. permission denied"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}

	bare := (&ActionableError{Operation: "scan documents"}).Format(true)
	if bare != "failed to scan documents" {
		t.Errorf("Format() without suggestions or cause = %q", bare)
	}
}

func TestErrorContextBuild(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("/repo").Build() != nil {
		t.Error("Build() without an operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without an operation = %#v, want untyped nil", err)
	}

	err := NewErrorContext().WithOperation("scan documents").BuildError()
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.HasSuggestions() {
		t.Errorf("BuildError() = %#v", err)
	}
}

func TestErrorContextReuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().
		WithOperation("parse document").
		WithSuggestion("Fix the syntax error")

	first := ctx.Wrap(errors.New("line 3")).Build()
	second := ctx.WithSuggestion("Run 'tagscope tree --verbose'").Wrap(errors.New("line 9")).Build()

	if first.Cause.Error() != "line 3" || second.Cause.Error() != "line 9" {
		t.Errorf("causes = %v, %v", first.Cause, second.Cause)
	}
	if len(first.Suggestions) != 1 || len(second.Suggestions) != 2 {
		t.Errorf("suggestions = %v, %v; built errors must not share storage", first.Suggestions, second.Suggestions)
	}
}

func TestErrorContextWithIssue(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("open project root").
		WithIssue(ProjectRootNotFoundId).
		Build()
	if got := err.CatalogIssue(); got == nil || got.Id() != ProjectRootNotFoundId {
		t.Errorf("CatalogIssue() = %v", got)
	}
	if (&ActionableError{Operation: "x"}).CatalogIssue() != nil {
		t.Error("CatalogIssue() without a link should be nil")
	}
}
