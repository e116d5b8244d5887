// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tagscope/tagscope/internal/category"
	"github.com/tagscope/tagscope/internal/config"
	"github.com/tagscope/tagscope/internal/discovery"
	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/issue"
	"github.com/tagscope/tagscope/internal/metrics"
	"github.com/tagscope/tagscope/internal/parsecache"
	"github.com/tagscope/tagscope/internal/tagtree"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra command handler receives an App
	// and opens projects through it.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// openOptions selects how a project is opened.
	openOptions struct {
		// dir is the project root; empty means the working directory.
		dir string
		// layout overrides the configured layout when set.
		layout tagtree.LayoutKind
		// quiet caps logging at warnings unless --verbose is set. One-shot
		// commands use it to keep scans out of their output.
		quiet bool
	}

	// project is an opened and scanned index over one directory.
	project struct {
		cfg       *config.Config
		cfgPath   string
		workspace *discovery.Workspace
		session   *engine.Session
		store     *parsecache.Store
		metrics   *prometheus.Registry
		recorder  *metrics.Recorder
		logger    *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// loadConfig loads the application configuration named by the root flags.
func (a *App) loadConfig(ctx context.Context, rootFlags *rootFlagValues) (*config.Config, string, error) {
	return a.Config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
}

// newLogger returns the CLI logger writing to stderr.
func (a *App) newLogger(cfg *config.Config, rootFlags *rootFlagValues, quiet bool) *log.Logger {
	level := cfg.LogLevel.Level()
	if quiet && level < log.WarnLevel {
		level = log.WarnLevel
	}
	if rootFlags.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{Level: level})
}

// openProject loads configuration, builds the engine over the project
// directory and runs the initial scan. The caller must close the project.
func (a *App) openProject(ctx context.Context, rootFlags *rootFlagValues, opts openOptions) (*project, error) {
	cfg, cfgPath, err := a.loadConfig(ctx, rootFlags)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg, rootFlags, opts.quiet)

	dir := opts.dir
	if dir == "" {
		dir = "."
	}
	ws, err := discovery.New(discovery.Config{
		Root:          dir,
		Include:       cfg.Include,
		Ignore:        cfg.Ignore,
		ModuleMarkers: cfg.ModuleMarkers,
		ContentRoots:  cfg.ContentRoots,
		Logger:        logger.WithPrefix("discovery"),
	})
	if err != nil {
		return nil, err
	}

	p := &project{cfg: cfg, cfgPath: cfgPath, workspace: ws, logger: logger}
	scopes, err := p.mappingScopes()
	if err != nil {
		return nil, err
	}

	parserOpts := []document.ParserOption{document.WithParserLogger(logger.WithPrefix("parser"))}
	if cfg.Cache.Enabled {
		store, storeErr := openParseCache(cfg, logger)
		if storeErr != nil {
			// The cache only saves parsing time; run without it.
			logger.Warn(formatErrorForDisplay(storeErr, rootFlags.verbose))
		} else {
			p.store = store
			parserOpts = append(parserOpts, document.WithStore(store))
		}
	}
	cache := document.NewCache(document.NewFileParser(parserOpts...), logger.WithPrefix("cache"))

	layout := cfg.Layout
	if opts.layout != "" {
		layout = opts.layout
	}
	e := engine.New(ws, cache, category.NewRegistry(), nil,
		engine.WithLayout(layout),
		engine.WithLogger(logger.WithPrefix("engine")),
	)
	e.SetMappings(scopes...)
	for _, pattern := range e.Registry().Invalid() {
		logger.Warn("mapping pattern does not compile and never matches", "pattern", pattern)
	}

	p.metrics = prometheus.NewRegistry()
	p.recorder = metrics.NewRecorder(p.metrics)
	p.session = engine.NewSession(e, cache,
		engine.WithRecorder(p.recorder),
		engine.WithSessionLogger(logger.WithPrefix("session")),
	)

	if err := p.session.Rescan(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("scan %s: %w", ws.ProjectRoot(), err)
	}
	for _, d := range ws.Diagnostics() {
		logger.Warn(d.String())
	}
	p.prune()
	return p, nil
}

func openParseCache(cfg *config.Config, logger *log.Logger) (*parsecache.Store, error) {
	dir, err := config.CacheDir(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	storeCfg := parsecache.DefaultConfig(dir)
	storeCfg.Logger = logger
	store, err := parsecache.Open(storeCfg)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open parse cache").
			WithResource(dir).
			WithSuggestion("Another tagscope process may hold the cache; it is used by one process at a time").
			WithSuggestion("Disable the cache with cache: enabled: false in your configuration").
			WithIssue(issue.CacheOpenFailedId).
			Wrap(err).
			BuildError()
	}
	return store, nil
}

// mappingScopes reads the project file and returns the mapping scopes in
// registry population order.
func (p *project) mappingScopes() ([][]category.Mapping, error) {
	projectFile, err := config.LoadProject(filepath.FromSlash(p.workspace.ProjectRoot()))
	if err != nil {
		return nil, err
	}
	return config.MappingScopes(p.cfg, projectFile)
}

// prune drops cache entries of documents that no longer exist below the
// project root.
func (p *project) prune() {
	if p.store == nil {
		return
	}
	root := p.workspace.ProjectRoot()
	removed, err := p.store.Prune(func(id document.ID) bool {
		if _, inside := document.RelativeDir(id, root); !inside {
			return true
		}
		return p.workspace.Exists(id)
	})
	if err != nil {
		p.logger.Warn("failed to prune parse cache", "error", err)
		return
	}
	if removed > 0 {
		p.logger.Debug("pruned parse cache", "removed", removed)
	}
}

// documentCount returns the number of documents in the project.
func (p *project) documentCount() int {
	return len(p.workspace.Documents())
}

// requireDocuments fails when the project holds no documents.
func (p *project) requireDocuments() error {
	if p.documentCount() > 0 {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("find documents").
		WithResource(p.workspace.ProjectRoot()).
		WithSuggestion("Run tagscope from a directory containing .feature or .story files").
		WithSuggestion("Check the include and ignore patterns with 'tagscope config show'").
		WithIssue(issue.NoDocumentsFoundId).
		Wrap(errNoDocuments).
		BuildError()
}

// Close releases the session and the parse cache.
func (p *project) Close() {
	p.session.Close()
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.logger.Warn("failed to close parse cache", "error", err)
		}
	}
}

var errNoDocuments = errors.New("no documents found")
