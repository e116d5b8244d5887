// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tagscope/tagscope/internal/render"
	"github.com/tagscope/tagscope/internal/tagtree"
)

// treeFlagValues holds the flags of `tagscope tree`.
type treeFlagValues struct {
	layout     string
	statistics string
	output     string
	depth      int
}

// newTreeCommand creates the `tagscope tree` command.
func newTreeCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &treeFlagValues{}

	cmd := &cobra.Command{
		Use:   "tree [dir]",
		Short: "Print the tag tree of a project",
		Long: `Scan a project and print its tags grouped by category.

The grouped layout places categories under the content root (module,
generic root or project root) that holds each document. The flat layout
merges everything under a single root.`,
		Example: `  tagscope tree
  tagscope tree --layout flat --stats detailed ./specs
  tagscope tree --output json | jq '.summary'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd.Context(), app, rootFlags, flags, dirArg(args))
		},
	}

	cmd.Flags().StringVar(&flags.layout, "layout", "", "tree layout: flat or grouped (default from configuration)")
	cmd.Flags().StringVar(&flags.statistics, "stats", "", "label statistics: disabled, simplified or detailed (default from configuration)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", string(render.FormatText), "output format: text, json, yaml or markdown")
	cmd.Flags().IntVar(&flags.depth, "depth", 0, "limit the rendered depth of text output (0 renders everything)")

	return cmd
}

func runTree(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *treeFlagValues, dir string) error {
	format := render.Format(flags.output)
	if err := format.Validate(); err != nil {
		return err
	}
	layout, err := parseLayout(flags.layout)
	if err != nil {
		return err
	}

	p, err := app.openProject(ctx, rootFlags, openOptions{dir: dir, layout: layout, quiet: true})
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.requireDocuments(); err != nil {
		return err
	}

	statistics, err := parseStatistics(flags.statistics, p.cfg.Statistics)
	if err != nil {
		return err
	}

	snap := render.FromSession(p.session, statistics)
	return render.Write(app.stdout, snap, format, render.TextOptions{
		Theme:    render.ThemeFor(lipgloss.NewRenderer(app.stdout)),
		MaxDepth: flags.depth,
	})
}

// dirArg returns the optional directory argument.
func dirArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseLayout validates a --layout value; empty keeps the configured layout.
func parseLayout(value string) (tagtree.LayoutKind, error) {
	if value == "" {
		return "", nil
	}
	kind := tagtree.LayoutKind(value)
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

// parseStatistics validates a --stats value, falling back to fallback when
// the flag is unset.
func parseStatistics(value string, fallback tagtree.Statistics) (tagtree.Statistics, error) {
	if value == "" {
		return fallback, nil
	}
	mode := tagtree.Statistics(value)
	if err := mode.Validate(); err != nil {
		return "", err
	}
	return mode, nil
}
