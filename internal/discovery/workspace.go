// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/issue"
)

var (
	// DefaultInclude selects every document format the parser understands.
	DefaultInclude = []string{"**/*" + document.FeatureExt, "**/*" + document.StoryExt}

	// DefaultIgnores are always applied on top of the configured ignores.
	DefaultIgnores = []string{
		"**/.git/**",
		"**/.hg/**",
		"**/.svn/**",
		"**/node_modules/**",
		"**/__pycache__/**",
		"**/.idea/**",
		"**/.gradle/**",
	}

	// DefaultModuleMarkers are the file names that turn a directory into a
	// module content root.
	DefaultModuleMarkers = []string{
		"go.mod",
		"pom.xml",
		"build.gradle",
		"build.gradle.kts",
		"package.json",
		"Cargo.toml",
		"pyproject.toml",
	}

	// ErrInvalidPattern is returned when an include or ignore glob is malformed.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

type (
	// Config controls what a Workspace considers a document and how content
	// roots are resolved. Zero-value slices fall back to the defaults above.
	Config struct {
		// Root is the project root directory.
		Root string
		// Include lists doublestar globs, relative to Root, selecting documents.
		Include []string
		// Ignore lists doublestar globs excluded from the walk.
		Ignore []string
		// ModuleMarkers lists file names that mark a module directory.
		ModuleMarkers []string
		// ContentRoots lists directories, relative to Root, treated as generic roots.
		ContentRoots []string
		// Logger receives debug output. Defaults to the charm default logger.
		Logger *log.Logger
	}

	// Workspace is a document.Workspace backed by the local file system.
	// It is safe for concurrent use.
	Workspace struct {
		root         string
		include      []string
		ignore       []string
		markers      []string
		contentRoots []string
		logger       *log.Logger

		mu          sync.Mutex
		markerDirs  map[string]string
		diagnostics []Diagnostic
	}
)

var _ document.Workspace = (*Workspace)(nil)

// New validates cfg and returns a Workspace rooted at cfg.Root.
func New(cfg Config) (*Workspace, error) {
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, issue.WrapWithContext(err, "resolve project root", cfg.Root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open project root").
			WithResource(abs).
			WithSuggestion("Pass an existing directory as the [dir] argument").
			WithIssue(issue.ProjectRootNotFoundId).
			Wrap(err).
			Build()
	}
	if !info.IsDir() {
		return nil, issue.NewErrorContext().
			WithOperation("open project root").
			WithResource(abs).
			WithSuggestion("The project root must be a directory").
			WithIssue(issue.ProjectRootNotFoundId).
			Wrap(fs.ErrInvalid).
			Build()
	}

	w := &Workspace{
		root:       filepath.ToSlash(filepath.Clean(abs)),
		include:    orDefault(cfg.Include, DefaultInclude),
		ignore:     append(slices.Clone(DefaultIgnores), cfg.Ignore...),
		markers:    orDefault(cfg.ModuleMarkers, DefaultModuleMarkers),
		logger:     cfg.Logger,
		markerDirs: make(map[string]string),
	}
	if w.logger == nil {
		w.logger = log.Default()
	}
	for _, pat := range slices.Concat(w.include, w.ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, issue.NewErrorContext().
				WithOperation("compile document globs").
				WithResource(pat).
				WithSuggestion("Check the include and ignore patterns in your configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(ErrInvalidPattern).
				Build()
		}
	}
	for _, cr := range cfg.ContentRoots {
		w.contentRoots = append(w.contentRoots, w.absolute(cr))
	}
	// Longest prefix first so nested roots shadow their parents.
	slices.SortStableFunc(w.contentRoots, func(a, b string) int {
		return len(b) - len(a)
	})
	w.contentRoots = slices.Compact(w.contentRoots)
	return w, nil
}

// ProjectRoot returns the slash-separated absolute project root.
func (w *Workspace) ProjectRoot() string {
	return w.root
}

// Documents walks the project root and returns every included document in
// path order. Diagnostics from the walk replace those of the previous call.
func (w *Workspace) Documents() []document.ID {
	var (
		ids   []document.ID
		diags []Diagnostic
	)
	for _, cr := range w.contentRoots {
		if info, err := os.Stat(filepath.FromSlash(cr)); err != nil || !info.IsDir() {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeContentRootMissing,
				Message:  "configured content root does not exist",
				Path:     cr,
				Cause:    err,
			})
		}
	}

	walkErr := filepath.WalkDir(filepath.FromSlash(w.root), func(p string, d fs.DirEntry, err error) error {
		rel, relErr := filepath.Rel(filepath.FromSlash(w.root), p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeWalkFailed,
				Message:  "skipped unreadable path",
				Path:     filepath.ToSlash(p),
				Cause:    err,
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if rel != "." && w.dirIgnored(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if w.includes(rel) {
			ids = append(ids, document.ID(path.Join(w.root, rel)))
		}
		return nil
	})
	if walkErr != nil {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     CodeWalkFailed,
			Message:  walkErr.Error(),
			Path:     w.root,
			Cause:    walkErr,
		})
	}

	slices.Sort(ids)
	w.mu.Lock()
	w.diagnostics = diags
	w.markerDirs = make(map[string]string)
	w.mu.Unlock()

	w.logger.Debug("workspace scanned", "root", w.root, "documents", len(ids), "diagnostics", len(diags))
	return ids
}

// Diagnostics returns the diagnostics collected by the last Documents call.
func (w *Workspace) Diagnostics() []Diagnostic {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.diagnostics)
}

// Exists reports whether the document is still a readable regular file.
func (w *Workspace) Exists(id document.ID) bool {
	info, err := os.Stat(id.Path())
	return err == nil && info.Mode().IsRegular()
}

// Matches reports whether p (absolute, either separator) would be returned
// by Documents, ignoring whether it currently exists.
func (w *Workspace) Matches(p string) bool {
	rel, ok := w.relative(filepath.ToSlash(p))
	if !ok || rel == "." {
		return false
	}
	if dir := path.Dir(rel); dir != "." && w.dirIgnored(dir) {
		return false
	}
	return w.includes(rel)
}

// IsMarker reports whether the base name of p is a module marker file.
func (w *Workspace) IsMarker(p string) bool {
	return slices.Contains(w.markers, path.Base(filepath.ToSlash(p)))
}

func (w *Workspace) includes(rel string) bool {
	return matchAny(w.include, rel) && !matchAny(w.ignore, rel)
}

// dirIgnored also probes a synthetic child so that "dir/**" patterns prune
// the directory itself.
func (w *Workspace) dirIgnored(rel string) bool {
	for dir := rel; dir != "." && dir != "/"; dir = path.Dir(dir) {
		if matchAny(w.ignore, dir) || matchAny(w.ignore, dir+"/_") {
			return true
		}
	}
	return false
}

func (w *Workspace) relative(p string) (string, bool) {
	p = path.Clean(p)
	if p == w.root {
		return ".", true
	}
	if !strings.HasPrefix(p, w.root+"/") {
		return "", false
	}
	return strings.TrimPrefix(p, w.root+"/"), true
}

func (w *Workspace) absolute(rel string) string {
	rel = filepath.ToSlash(rel)
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return path.Clean(rel)
	}
	return path.Join(w.root, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return slices.Clone(fallback)
	}
	return slices.Clone(values)
}

// String describes the workspace for log output.
func (w *Workspace) String() string {
	return fmt.Sprintf("workspace(%s)", w.root)
}
