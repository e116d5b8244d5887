// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tagscope/tagscope/internal/render"
)

const (
	statsFormatStyled   = "styled"
	statsFormatMarkdown = "markdown"
	statsFormatJSON     = "json"
)

// statsFlagValues holds the flags of `tagscope stats`.
type statsFlagValues struct {
	layout string
	top    int
	format string
}

// newStatsCommand creates the `tagscope stats` command.
func newStatsCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &statsFlagValues{}

	cmd := &cobra.Command{
		Use:   "stats [dir]",
		Short: "Print tag statistics of a project",
		Long: `Scan a project and print how often each category and tag is used.

The styled format renders a markdown report for the terminal; use
--format markdown to keep the raw markdown, or --format json for tooling.`,
		Example: `  tagscope stats
  tagscope stats --top 5
  tagscope stats --format markdown > TAGS.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), app, rootFlags, flags, dirArg(args))
		},
	}

	cmd.Flags().StringVar(&flags.layout, "layout", "", "tree layout the report is computed from: flat or grouped")
	cmd.Flags().IntVar(&flags.top, "top", 10, "number of tags listed in the report (0 lists every tag)")
	cmd.Flags().StringVar(&flags.format, "format", statsFormatStyled, "report format: styled, markdown or json")

	return cmd
}

func runStats(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *statsFlagValues, dir string) error {
	switch flags.format {
	case statsFormatStyled, statsFormatMarkdown, statsFormatJSON:
	default:
		return fmt.Errorf("invalid report format %q (valid: %s, %s, %s)", flags.format, statsFormatStyled, statsFormatMarkdown, statsFormatJSON)
	}
	if flags.top < 0 {
		return fmt.Errorf("--top must not be negative, got %d", flags.top)
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

	st := render.Collect(render.FromSession(p.session, p.cfg.Statistics))
	if flags.format == statsFormatJSON {
		if flags.top > 0 && len(st.Tags) > flags.top {
			st.Tags = st.Tags[:flags.top]
		}
		return render.WriteJSON(app.stdout, st)
	}

	md := render.Report(st, flags.top)
	if flags.format == statsFormatMarkdown {
		_, err := io.WriteString(app.stdout, md)
		return err
	}

	width, plain := terminalWidth(app.stdout)
	out, err := render.RenderReport(md, render.ReportOptions{Width: width, Plain: plain})
	if err != nil {
		return err
	}
	_, err = io.WriteString(app.stdout, out)
	return err
}

// terminalWidth reports the width of w when it is a terminal. plain is set
// for anything else so reports piped to files carry no escape sequences.
func terminalWidth(w io.Writer) (width int, plain bool) {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, true
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, false
	}
	return width, false
}
