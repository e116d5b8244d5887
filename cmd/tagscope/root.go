// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/tagscope/tagscope/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd, _ := newRootCommand(app)
	return rootCmd
}

func newRootCommand(app *App) (*cobra.Command, *rootFlagValues) {
	rootFlags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "tagscope",
		Short: "Browse the tags of your Gherkin and JBehave documents",
		Long: TitleStyle.Render("tagscope") + SubtitleStyle.Render(" - Browse the tags of your Gherkin and JBehave documents") + `

tagscope scans a project for .feature and .story documents, groups their
tags into categories and keeps the resulting tree up to date while the
documents change.

` + SubtitleStyle.Render("Examples:") + `
  tagscope tree                   Print the tag tree of the current directory
  tagscope tree --layout flat     Merge all modules into one tree
  tagscope stats                  Show the most used tags
  tagscope browse                 Explore the tree interactively
  tagscope serve                  Serve the tree over SSH and HTTP
  tagscope tags remove wip        Delete every @wip tag`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/tagscope/config.cue)")

	rootCmd.AddCommand(
		newTreeCommand(app, rootFlags),
		newStatsCommand(app, rootFlags),
		newWatchCommand(app, rootFlags),
		newBrowseCommand(app, rootFlags),
		newServeCommand(app, rootFlags),
		newTagsCommand(app, rootFlags),
		newConfigCommand(app, rootFlags),
	)

	return rootCmd, rootFlags
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(ExitFailure)
	}
	rootCmd, rootFlags := newRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(rootFlags)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// errorHandler prints actionable errors with their suggestions, and the
// matching catalog entry in verbose mode. Other errors use fang's default
// rendering.
func errorHandler(rootFlags *rootFlagValues) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			fang.DefaultErrorHandler(w, styles, err)
			return
		}
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, rootFlags.verbose))
		switch {
		case rootFlags.verbose:
			fmt.Fprintln(w)
			renderIssue(w, err)
		case ae.CatalogIssue() != nil:
			fmt.Fprintln(w, VerboseStyle.Render("Run again with --verbose for troubleshooting steps."))
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue writes the catalog entry attached to err, if any. It is only
// used in verbose mode; the short form is printed by fang.
func renderIssue(w io.Writer, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	iss := ae.CatalogIssue()
	if iss == nil {
		return
	}
	rendered, renderErr := iss.Render("dark")
	if renderErr != nil {
		return
	}
	fmt.Fprint(w, strings.TrimRight(rendered, "\n")+"\n")
}
