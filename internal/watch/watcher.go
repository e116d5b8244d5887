// SPDX-License-Identifier: MPL-2.0

// Package watch turns file system events under a project root into debounced
// batches of changed documents.
//
// Events within the debounce window are coalesced so the callback fires once
// with the deduplicated set of changed documents. Events that may change
// which documents exist or which content root they belong to (directory
// creation, removal or rename, and module marker changes) additionally
// request a full rescan.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/tagscope/tagscope/internal/document"
)

// defaultDebounce is the delay before firing the callback after the last
// file system event. Editors that write then rename a temp file produce
// several events per save.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores lists path patterns that never produce batches: VCS metadata,
// dependency caches, editor swap files and OS metadata files.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Filter classifies changed paths. Paths are absolute.
	Filter interface {
		// Matches reports whether path is a document.
		Matches(path string) bool
		// IsMarker reports whether path is a module marker file.
		IsMarker(path string) bool
	}

	// Batch is one debounced set of changes.
	Batch struct {
		// Documents lists changed document paths in order.
		Documents []document.ID
		// Rescan is set when the set of documents or their content roots may
		// have changed in ways per-document updates cannot capture.
		Rescan bool
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the root directory to watch. An empty value defaults to
		// the current working directory.
		BaseDir string

		// Filter decides which file events are documents and which are module
		// markers. Required.
		Filter Filter

		// Ignore are additional doublestar-compatible glob patterns, relative
		// to BaseDir, for paths that never produce events. These are merged
		// with the built-in default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen clears the terminal before each callback invocation by
		// writing ANSI escape sequences to Stdout.
		ClearScreen bool

		// OnBatch is called after the debounce window closes. A nil callback
		// is a no-op.
		OnBatch func(ctx context.Context, b Batch) error

		// Stdout receives the clear-screen sequence. Defaults to os.Stdout.
		Stdout io.Writer

		// Logger receives watcher diagnostics. Defaults to the charm default logger.
		Logger *log.Logger
	}

	// Watcher monitors a directory tree and fires a debounced callback when
	// documents change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		stdout   io.Writer
		logger   *log.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool

		dirsMu sync.Mutex
		dirs   map[string]struct{}
	}
)

// New creates a Watcher from the given Config. It resolves BaseDir to an
// absolute path, initialises the underlying fsnotify watcher, and registers
// all non-ignored directories under BaseDir for monitoring.
func New(cfg Config) (*Watcher, error) {
	if cfg.Filter == nil {
		return nil, errors.New("watch: a Filter is required")
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	// Validate all patterns eagerly so invalid globs fail at construction
	// time rather than silently failing to match at runtime.
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		stdout:   stdout,
		logger:   logger.WithPrefix("watch"),
		debounce: debounce,
		baseDir:  absBase,
		dirs:     make(map[string]struct{}),
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("close after init failure", "err", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is canceled, turning file system events into
// batches. It returns nil on cancellation and an error when fsnotify fails
// in a way that would leave parts of the tree unwatched.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	d := newDebouncer(w.debounce, func(b Batch) { w.dispatch(ctx, b) })
	defer func() {
		d.stop()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if doc, rescan := w.classify(evt); doc || rescan {
				d.add(document.NewID(evt.Name), doc, rescan)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, b Batch) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Debug("batch ready", "documents", len(b.Documents), "rescan", b.Rescan)
	if w.cfg.ClearScreen {
		fmt.Fprint(w.stdout, "\033[2J\033[H")
	}
	if w.cfg.OnBatch == nil {
		return
	}
	if err := w.cfg.OnBatch(ctx, b); err != nil {
		w.logger.Error("batch callback failed", "err", err)
	}
}

// classify reports whether evt touches a document and whether it requires a
// full rescan.
func (w *Watcher) classify(evt fsnotify.Event) (doc, rescan bool) {
	rel, err := filepath.Rel(w.baseDir, evt.Name)
	if err != nil || w.isIgnored(rel) {
		return false, false
	}
	if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
		return false, false
	}

	if evt.Has(fsnotify.Create) && w.maybeAddDir(evt.Name) {
		return false, true
	}
	if (evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename)) && w.forgetDir(evt.Name) {
		return false, true
	}
	if w.cfg.Filter.IsMarker(evt.Name) {
		return false, true
	}
	return w.cfg.Filter.Matches(evt.Name), false
}

// addDirectories walks BaseDir and adds every non-ignored directory to the
// fsnotify watcher.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Permission errors on individual directories should not prevent
			// watching the rest of the tree.
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if rel != "." && w.isIgnoredDir(rel) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		w.trackDir(path)
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir watches path if it is a new, non-ignored directory, including
// any directories below it. It reports whether path was a directory.
func (w *Watcher) maybeAddDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnoredDir(rel) {
		return true
	}

	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || !d.IsDir() {
			return nil //nolint:nilerr // best-effort
		}
		if r, relErr := filepath.Rel(w.baseDir, p); relErr == nil && w.isIgnoredDir(r) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			w.logger.Warn("add new directory", "path", p, "err", addErr)
			return nil
		}
		w.trackDir(p)
		return nil
	})
	return true
}

func (w *Watcher) trackDir(path string) {
	w.dirsMu.Lock()
	w.dirs[filepath.Clean(path)] = struct{}{}
	w.dirsMu.Unlock()
}

// forgetDir drops path and everything below it from the tracked set and
// reports whether path was a watched directory.
func (w *Watcher) forgetDir(path string) bool {
	path = filepath.Clean(path)
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()
	if _, ok := w.dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for d := range w.dirs {
		if d == path || len(d) > len(prefix) && d[:len(prefix)] == prefix {
			delete(w.dirs, d)
		}
	}
	return true
}

// isIgnored returns true if the given path (relative to BaseDir) matches any
// ignore pattern.
func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// isIgnoredDir also probes a synthetic child so "dir/**" patterns prune the
// directory itself.
func (w *Watcher) isIgnoredDir(rel string) bool {
	return w.isIgnored(rel) || w.isIgnored(filepath.ToSlash(rel)+"/_")
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks that every pattern in the slice is a valid doublestar
// glob. The label is used in error messages.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
