// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tagscope/tagscope/internal/config"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/testutil"
	"github.com/tagscope/tagscope/internal/watch"
)

func openTestProject(t *testing.T) (*project, string) {
	t.Helper()

	dir, cfgPath := newTestProject(t)
	app, err := NewApp(Dependencies{Stdout: io.Discard, Stderr: io.Discard})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	p, err := app.openProject(t.Context(), &rootFlagValues{configPath: cfgPath}, openOptions{dir: dir, quiet: true})
	if err != nil {
		t.Fatalf("openProject() error = %v", err)
	}
	t.Cleanup(p.Close)
	return p, dir
}

func hasTag(p *project, name string) bool {
	var found bool
	p.session.View(func(e *engine.Engine) {
		found = len(e.FindTag(name)) > 0
	})
	return found
}

func TestProject_ApplyBatchRescan(t *testing.T) {
	t.Parallel()

	p, dir := openTestProject(t)
	testutil.MustWriteFile(t, filepath.Join(dir, "extra", "cart.feature"), "@slow\nFeature: Cart\n")

	if err := p.applyBatch(t.Context(), watch.Batch{Rescan: true}); err != nil {
		t.Fatalf("applyBatch() error = %v", err)
	}
	if !hasTag(p, "slow") {
		t.Error("rescan did not pick up the new document")
	}
	var docs int
	p.session.View(func(e *engine.Engine) {
		docs = e.Summary().Documents
	})
	if docs != 3 {
		t.Errorf("Documents = %d, want 3", docs)
	}
}

func TestProject_LiveUpdates(t *testing.T) {
	t.Parallel()

	p, dir := openTestProject(t)

	ctx, cancel := context.WithCancel(t.Context())
	g, gctx := errgroup.WithContext(ctx)
	if err := p.startLive(gctx, g, liveOptions{}); err != nil {
		cancel()
		t.Fatalf("startLive() error = %v", err)
	}

	testutil.MustWriteFile(t, filepath.Join(dir, "features", "search.feature"), "@regression @slow\nFeature: Search\n")
	testutil.Eventually(t, 10*time.Second, func() bool { return hasTag(p, "slow") }, "@slow never appeared in the tree")

	cancel()
	if err := g.Wait(); err != nil {
		t.Errorf("live loops returned error = %v", err)
	}
}

func TestProject_ApplyBatchReloadsProjectMappings(t *testing.T) {
	t.Parallel()

	p, dir := openTestProject(t)
	testutil.MustWriteFile(t, filepath.Join(dir, config.ProjectFileName), `use_project_mappings: true
mappings: [{category: "Work", tags: "wip"}]
`)

	if err := p.applyBatch(t.Context(), watch.Batch{Rescan: true}); err != nil {
		t.Fatalf("applyBatch() error = %v", err)
	}
	var (
		name   string
		mapped bool
	)
	p.session.View(func(e *engine.Engine) {
		name, mapped = e.Registry().CategoryOf("wip")
	})
	if !mapped || name != "Work" {
		t.Errorf("CategoryOf(wip) = %q, %v; want Work, true", name, mapped)
	}
}

func TestLiveFilter_ProjectFileIsMarker(t *testing.T) {
	t.Parallel()

	p, dir := openTestProject(t)
	root := filepath.FromSlash(p.workspace.ProjectRoot())
	f := liveFilter{Workspace: p.workspace, projectFile: filepath.Join(root, config.ProjectFileName)}

	if !f.IsMarker(filepath.Join(root, config.ProjectFileName)) {
		t.Error("project file should trigger a rescan")
	}
	if !f.IsMarker(filepath.Join(dir, "sub", "go.mod")) {
		t.Error("module markers should still trigger a rescan")
	}
	if f.IsMarker(filepath.Join(dir, "features", "login.feature")) {
		t.Error("documents are not markers")
	}
}
