// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tagscope/tagscope/internal/document"
)

// suffixFilter treats .feature files as documents and go.mod as a marker.
type suffixFilter struct{}

func (suffixFilter) Matches(path string) bool  { return strings.HasSuffix(path, ".feature") }
func (suffixFilter) IsMarker(path string) bool { return filepath.Base(path) == "go.mod" }

// recorder collects batches delivered by a watcher.
type recorder struct {
	mu      sync.Mutex
	batches []Batch
	notify  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) onBatch(_ context.Context, b Batch) error {
	r.mu.Lock()
	r.batches = append(r.batches, b)
	r.mu.Unlock()
	r.notify <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a batch")
	}
}

func (r *recorder) snapshot() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.batches)
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{})
}

// startWatcher runs a watcher on dir until the test ends.
func startWatcher(t *testing.T, cfg Config) {
	t.Helper()
	if cfg.Filter == nil {
		cfg.Filter = suffixFilter{}
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	cfg.Logger = quietLogger()
	cfg.Stdout = &bytes.Buffer{}

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
	// Give fsnotify a moment to settle before generating events.
	time.Sleep(20 * time.Millisecond)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Config{BaseDir: dir, Debounce: 150 * time.Millisecond, OnBatch: rec.onBatch})

	a := filepath.Join(dir, "a.feature")
	b := filepath.Join(dir, "b.feature")
	writeFile(t, a, "Feature: a\n")
	writeFile(t, b, "Feature: b\n")
	writeFile(t, a, "@smoke\nFeature: a\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	rec.wait(t)
	batches := rec.snapshot()
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1 coalesced batch", len(batches))
	}
	want := []document.ID{document.NewID(a), document.NewID(b)}
	if !slices.Equal(batches[0].Documents, want) {
		t.Errorf("Documents = %v, want %v", batches[0].Documents, want)
	}
	if batches[0].Rescan {
		t.Error("plain document edits should not request a rescan")
	}
}

func TestWatcherIgnorePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, sub := range []string{"generated", "node_modules"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	rec := newRecorder()
	startWatcher(t, Config{BaseDir: dir, Ignore: []string{"generated/**"}, OnBatch: rec.onBatch})

	writeFile(t, filepath.Join(dir, "generated", "x.feature"), "Feature: x\n")
	writeFile(t, filepath.Join(dir, "node_modules", "y.feature"), "Feature: y\n")
	kept := filepath.Join(dir, "kept.feature")
	writeFile(t, kept, "Feature: kept\n")

	rec.wait(t)
	got := rec.snapshot()[0].Documents
	if !slices.Equal(got, []document.ID{document.NewID(kept)}) {
		t.Errorf("Documents = %v, want only the non-ignored document", got)
	}
}

func TestWatcherMarkerRequestsRescan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Config{BaseDir: dir, OnBatch: rec.onBatch})

	writeFile(t, filepath.Join(dir, "go.mod"), "module x\n")

	rec.wait(t)
	b := rec.snapshot()[0]
	if !b.Rescan || len(b.Documents) != 0 {
		t.Errorf("batch = %+v, want a rescan without documents", b)
	}
}

func TestWatcherDirectoryLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Config{BaseDir: dir, OnBatch: rec.onBatch})

	sub := filepath.Join(dir, "specs")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)
	if !rec.snapshot()[0].Rescan {
		t.Fatal("a new directory should request a rescan")
	}

	// The new directory is watched from now on.
	nested := filepath.Join(sub, "n.feature")
	writeFile(t, nested, "Feature: n\n")
	rec.wait(t)
	if got := rec.snapshot()[1].Documents; !slices.Contains(got, document.NewID(nested)) {
		t.Errorf("Documents = %v, want the document inside the new directory", got)
	}

	if err := os.RemoveAll(sub); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)
	batches := rec.snapshot()
	if !batches[len(batches)-1].Rescan {
		t.Error("removing a watched directory should request a rescan")
	}
}

func TestWatcherClearScreen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	rec := newRecorder()
	w, err := New(Config{
		BaseDir:     dir,
		Filter:      suffixFilter{},
		Debounce:    50 * time.Millisecond,
		ClearScreen: true,
		Stdout:      &out,
		Logger:      quietLogger(),
		OnBatch:     rec.onBatch,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "a.feature"), "Feature: a\n")
	rec.wait(t)
	if !strings.Contains(out.String(), "\033[2J\033[H") {
		t.Errorf("stdout = %q, want the clear-screen sequence", out.String())
	}
}

func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir(), Filter: suffixFilter{}, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir(), Filter: suffixFilter{}, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{BaseDir: t.TempDir()}); err == nil {
		t.Error("New() without a Filter should fail")
	}
	if _, err := New(Config{BaseDir: t.TempDir(), Filter: suffixFilter{}, Ignore: []string{"[bad"}}); err == nil {
		t.Error("New() with an invalid ignore pattern should fail")
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: DefaultIgnores()}
	tests := []struct {
		rel  string
		want bool
	}{
		{".git/HEAD", true},
		{"web/node_modules/pkg/a.feature", true},
		{"a.feature.swp", true},
		{"specs/.DS_Store", true},
		{"specs/a.feature~", true},
		{"specs/a.feature", false},
	}
	for _, tt := range tests {
		if got := w.isIgnored(tt.rel); got != tt.want {
			t.Errorf("isIgnored(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	ignores := DefaultIgnores()
	ignores[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() should return a copy")
	}
}
