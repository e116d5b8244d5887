// SPDX-License-Identifier: MPL-2.0

package document

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type memStore struct {
	mu   sync.Mutex
	gets int
	data map[ID]map[Stamp]Parsed
}

func (s *memStore) Get(id ID, stamp Stamp) (Parsed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	p, ok := s.data[id][stamp]
	return p, ok
}

func (s *memStore) Put(id ID, stamp Stamp, p Parsed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[id] == nil {
		s.data[id] = make(map[Stamp]Parsed)
	}
	s.data[id][stamp] = p
}

func writeFile(t *testing.T, path, content string) ID {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return NewID(path)
}

func TestFileParser_DispatchesByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	feature := writeFile(t, filepath.Join(dir, "a.feature"), "@x\nFeature: A\n")
	story := writeFile(t, filepath.Join(dir, "b.story"), "Meta:\n@y\n")
	other := writeFile(t, filepath.Join(dir, "c.txt"), "@z\n")

	p := NewFileParser()

	if occ, ok := p.Occurrences(feature); !ok || len(occ) != 1 || occ[0].Tag != "x" {
		t.Errorf("feature occurrences = %v, %v", occ, ok)
	}
	if occ, ok := p.Occurrences(story); !ok || len(occ) != 1 || occ[0].Tag != "y" {
		t.Errorf("story occurrences = %v, %v", occ, ok)
	}
	if _, err := p.Parse(other); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Parse(.txt) error = %v, want ErrUnsupportedFormat", err)
	}
	if p.Supports(other) {
		t.Error("Supports(.txt) = true")
	}
	if _, ok := p.Occurrences(NewID(filepath.Join(dir, "gone.feature"))); ok {
		t.Error("missing document reported readable")
	}
}

func TestFileParser_UsesStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := writeFile(t, filepath.Join(dir, "a.feature"), "@x\nFeature: A\n")

	store := &memStore{data: make(map[ID]map[Stamp]Parsed)}
	p := NewFileParser(WithStore(store))

	first, err := p.Parse(id)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// Poison the stored entry to prove the second call is served from it.
	store.mu.Lock()
	for stamp := range store.data[id] {
		store.data[id][stamp] = Parsed{Heading: "from store"}
	}
	store.mu.Unlock()

	second, err := p.Parse(id)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if first.Heading != "A" || second.Heading != "from store" {
		t.Errorf("headings = %q, %q, want %q, %q", first.Heading, second.Heading, "A", "from store")
	}
}
