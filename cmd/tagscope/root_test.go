// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v0.3.0"
		Commit = "9f2c1ab"
		BuildDate = "2026-02-01T08:30:00Z"

		got := getVersionString()
		want := "v0.3.0 (commit: 9f2c1ab, built: 2026-02-01T08:30:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	app, err := NewApp(Dependencies{})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	root := NewRootCommand(app)

	for _, name := range []string{"tree", "stats", "watch", "browse", "serve", "tags", "config"} {
		found, _, findErr := root.Find([]string{name})
		if findErr != nil || found.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag not registered")
	}
	if root.PersistentFlags().ShorthandLookup("v") == nil {
		t.Error("-v shorthand not registered")
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := errors.New("aborted")
	err := &ExitError{Code: ExitCancelled, Err: inner}
	if err.Error() != "aborted" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("ExitError should unwrap to its cause")
	}

	bare := &ExitError{Code: 3}
	if bare.Error() != "exit status 3" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "exit status 3")
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")
	if got := formatErrorForDisplay(plain, false); got != "boom" {
		t.Errorf("formatErrorForDisplay() = %q, want %q", got, "boom")
	}
	actionable := tagNotFoundError("wip", "/p")
	if got := formatErrorForDisplay(actionable, false); got == "" {
		t.Error("formatErrorForDisplay() returned empty string for actionable error")
	}
}
