// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/render"
)

// watchFlagValues holds the flags of `tagscope watch`.
type watchFlagValues struct {
	layout     string
	statistics string
	noClear    bool
}

// newWatchCommand creates the `tagscope watch` command.
func newWatchCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &watchFlagValues{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Print the tag tree and reprint it when documents change",
		Long: `Print the tag tree, then watch the project and print it again after
every change. Only the changed documents are re-parsed; creating or
removing module markers rebuilds the whole tree.

Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), app, rootFlags, flags, dirArg(args))
		},
	}

	cmd.Flags().StringVar(&flags.layout, "layout", "", "tree layout: flat or grouped (default from configuration)")
	cmd.Flags().StringVar(&flags.statistics, "stats", "", "label statistics: disabled, simplified or detailed (default from configuration)")
	cmd.Flags().BoolVar(&flags.noClear, "no-clear", false, "keep previous output instead of clearing the screen")

	return cmd
}

func runWatch(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *watchFlagValues, dir string) error {
	layout, err := parseLayout(flags.layout)
	if err != nil {
		return err
	}

	p, err := app.openProject(ctx, rootFlags, openOptions{dir: dir, layout: layout})
	if err != nil {
		return err
	}
	defer p.Close()

	statistics, err := parseStatistics(flags.statistics, p.cfg.Statistics)
	if err != nil {
		return err
	}

	theme := render.ThemeFor(lipgloss.NewRenderer(app.stdout))
	printTree := func() error {
		snap := render.FromSession(p.session, statistics)
		return render.Text(app.stdout, snap, render.TextOptions{Theme: theme})
	}

	if err := printTree(); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "\n%s Watching %s for changes (Ctrl+C to stop)...\n",
		ArrowStyle.Render("→"), CmdStyle.Render(p.workspace.ProjectRoot()))

	updates, unsubscribe := p.session.Subscribe()
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	if err := p.startLive(gctx, g, liveOptions{
		stdout:      app.stdout,
		clearScreen: p.cfg.Watch.ClearScreen && !flags.noClear,
	}); err != nil {
		return err
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case u, ok := <-updates:
				if !ok {
					return nil
				}
				fmt.Fprintf(app.stdout, "%s %s\n\n", ArrowStyle.Render("→"), describeUpdate(u))
				if err := printTree(); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n", ArrowStyle.Render("→"))
			}
		}
	})

	return g.Wait()
}

// describeUpdate summarizes an update in one line.
func describeUpdate(u engine.Update) string {
	stamp := u.Time.Format("15:04:05")
	if u.Rescan {
		return fmt.Sprintf("%s rescanned %d document(s)", stamp, len(u.Documents))
	}
	msg := fmt.Sprintf("%s updated %d document(s)", stamp, u.Result.Updated)
	if u.Result.Deleted > 0 {
		msg += fmt.Sprintf(", removed %d", u.Result.Deleted)
	}
	return msg
}
