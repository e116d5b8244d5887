// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tagscope/tagscope/internal/config"
	"github.com/tagscope/tagscope/internal/discovery"
	"github.com/tagscope/tagscope/internal/issue"
	"github.com/tagscope/tagscope/internal/watch"
)

// liveFilter extends the workspace filter so that edits of the project file
// trigger a rescan, which reloads its mappings.
type liveFilter struct {
	*discovery.Workspace
	projectFile string
}

// IsMarker implements watch.Filter.
func (f liveFilter) IsMarker(path string) bool {
	return f.Workspace.IsMarker(path) || filepath.Clean(path) == f.projectFile
}

// liveOptions configures the background updates of a project.
type liveOptions struct {
	// stdout receives the clear-screen sequence when clearScreen is set.
	stdout      io.Writer
	clearScreen bool
}

// startLive keeps the project's tree current: file system batches are fed
// into the session and reconciled in the background. Both loops stop when
// ctx is done; fatal watcher errors cancel the group.
func (p *project) startLive(ctx context.Context, g *errgroup.Group, opts liveOptions) error {
	root := filepath.FromSlash(p.workspace.ProjectRoot())
	w, err := watch.New(watch.Config{
		BaseDir:     root,
		Filter:      liveFilter{Workspace: p.workspace, projectFile: filepath.Join(root, config.ProjectFileName)},
		Ignore:      p.cfg.Ignore,
		Debounce:    p.cfg.Watch.Debounce,
		ClearScreen: opts.clearScreen,
		OnBatch:     p.applyBatch,
		Stdout:      opts.stdout,
		Logger:      p.logger.WithPrefix("watch"),
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("watch project").
			WithResource(root).
			WithSuggestion("Check the ignore patterns in your configuration").
			WithSuggestion("On Linux, raise fs.inotify.max_user_watches for large projects").
			WithIssue(issue.WatchFailedId).
			Wrap(err).
			BuildError()
	}

	g.Go(func() error {
		return p.session.Run(ctx)
	})
	g.Go(func() error {
		if runErr := w.Run(ctx); runErr != nil {
			return issue.NewErrorContext().
				WithOperation("watch project").
				WithResource(root).
				WithIssue(issue.WatchFailedId).
				Wrap(runErr).
				BuildError()
		}
		return nil
	})
	return nil
}

// applyBatch routes one debounced watcher batch into the session. Marker and
// directory changes may move documents between content roots, so they
// rebuild the whole tree with freshly read project mappings.
func (p *project) applyBatch(ctx context.Context, b watch.Batch) error {
	if b.Rescan {
		p.logger.Debug("rescanning project", "documents", len(b.Documents))
		p.workspace.Refresh()
		scopes, err := p.mappingScopes()
		if err != nil {
			// Keep the previous mappings until the project file is fixed.
			p.logger.Warn(formatErrorForDisplay(err, false))
			err = p.session.Rescan(ctx)
		} else {
			err = p.session.ReloadMappings(ctx, scopes...)
		}
		if err != nil {
			return err
		}
		p.prune()
		return nil
	}
	p.logger.Debug("documents changed", "documents", len(b.Documents))
	p.session.Submit(b.Documents...)
	return nil
}
