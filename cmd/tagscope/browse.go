// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tagscope/tagscope/internal/tui"
)

// browseFlagValues holds the flags of `tagscope browse`.
type browseFlagValues struct {
	layout     string
	statistics string
}

var errNotInteractive = errors.New("browse needs an interactive terminal")

// newBrowseCommand creates the `tagscope browse` command.
func newBrowseCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &browseFlagValues{}

	cmd := &cobra.Command{
		Use:   "browse [dir]",
		Short: "Browse the tag tree interactively",
		Long: `Open an interactive browser over the tag tree. The tree follows file
changes while the browser is open.

Keys: j/k move, l/h expand and collapse, enter toggles, g switches
between the grouped and flat layouts, s cycles the statistics mode,
? shows every key and q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context(), app, rootFlags, flags, dirArg(args))
		},
	}

	cmd.Flags().StringVar(&flags.layout, "layout", "", "initial tree layout: flat or grouped")
	cmd.Flags().StringVar(&flags.statistics, "stats", "", "initial label statistics: disabled, simplified or detailed")

	return cmd
}

func runBrowse(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *browseFlagValues, dir string) error {
	if !tui.IsInteractive() {
		return errNotInteractive
	}
	layout, err := parseLayout(flags.layout)
	if err != nil {
		return err
	}

	// Logs would tear the alternate screen; only warnings get through.
	p, err := app.openProject(ctx, rootFlags, openOptions{dir: dir, layout: layout, quiet: true})
	if err != nil {
		return err
	}
	defer p.Close()

	statistics, err := parseStatistics(flags.statistics, p.cfg.Statistics)
	if err != nil {
		return err
	}

	updates, unsubscribe := p.session.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if err := p.startLive(gctx, g, liveOptions{}); err != nil {
		return err
	}

	browseErr := tui.RunBrowser(gctx, p.session, tui.BrowserOptions{
		Statistics: statistics,
		Updates:    updates,
	})
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return browseErr
}
