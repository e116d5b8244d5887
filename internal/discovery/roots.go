// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tagscope/tagscope/internal/document"
)

// noMarker caches a directory known to hold no module marker.
const noMarker = ""

// ContentRootOf resolves the content root of id. Configured roots take
// precedence over module markers; documents outside the project root or
// below no root at all are unresolved.
func (w *Workspace) ContentRootOf(id document.ID) (document.RootRef, bool) {
	dir := id.Dir()
	if _, ok := w.relative(dir); !ok {
		return document.RootRef{}, false
	}
	for _, cr := range w.contentRoots {
		if dir == cr || strings.HasPrefix(dir, cr+"/") {
			return document.RootRef{Name: w.rootName(cr), Kind: document.RootGeneric}, true
		}
	}
	for {
		if w.hasMarker(dir) {
			return document.RootRef{Name: w.rootName(dir), Kind: document.RootModule}, true
		}
		if dir == w.root {
			return document.RootRef{}, false
		}
		parent := path.Dir(dir)
		if parent == dir {
			return document.RootRef{}, false
		}
		dir = parent
	}
}

// Refresh forgets cached marker lookups, typically after a marker file was
// created or removed.
func (w *Workspace) Refresh() {
	w.mu.Lock()
	w.markerDirs = make(map[string]string)
	w.mu.Unlock()
}

// rootName is the root's path relative to the project root, or the project
// directory name for the project root itself.
func (w *Workspace) rootName(dir string) string {
	rel, ok := w.relative(dir)
	if !ok {
		return path.Base(dir)
	}
	if rel == "." {
		return path.Base(w.root)
	}
	return rel
}

func (w *Workspace) hasMarker(dir string) bool {
	w.mu.Lock()
	found, cached := w.markerDirs[dir]
	w.mu.Unlock()
	if cached {
		return found != noMarker
	}

	found = noMarker
	for _, m := range w.markers {
		info, err := os.Stat(filepath.Join(filepath.FromSlash(dir), m))
		if err == nil && !info.IsDir() {
			found = m
			break
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.addDiagnostic(Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeMarkerUnreadable,
				Message:  "could not inspect module marker",
				Path:     path.Join(dir, m),
				Cause:    err,
			})
		}
	}

	w.mu.Lock()
	w.markerDirs[dir] = found
	w.mu.Unlock()
	return found != noMarker
}

func (w *Workspace) addDiagnostic(d Diagnostic) {
	w.mu.Lock()
	w.diagnostics = append(w.diagnostics, d)
	w.mu.Unlock()
}
