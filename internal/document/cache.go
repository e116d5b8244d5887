// SPDX-License-Identifier: MPL-2.0

package document

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

type (
	// Cache is a Parser that memoizes the results of a Source.
	//
	// Load and Invalidate let the owner decide when I/O happens: documents
	// are loaded ahead of a tree update, so the update itself only reads
	// memory. A document that was never loaded is parsed on first access.
	Cache struct {
		source Source
		logger *log.Logger

		mu      sync.RWMutex
		entries map[ID]cacheEntry
	}

	cacheEntry struct {
		parsed   Parsed
		readable bool
	}
)

// NewCache returns an empty cache over source. A nil logger discards output.
func NewCache(source Source, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{
		source:  source,
		logger:  logger,
		entries: make(map[ID]cacheEntry),
	}
}

// Load parses the document now, replacing any cached result. It reports
// whether the document was readable.
func (c *Cache) Load(id ID) bool {
	return c.load(id).readable
}

// Invalidate drops the cached results of the given documents.
func (c *Cache) Invalidate(ids ...ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// Reset drops every cached result.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Occurrences implements Parser.
func (c *Cache) Occurrences(id ID) ([]Occurrence, bool) {
	e := c.get(id)
	return e.parsed.Occurrences, e.readable
}

// PrimaryHeading implements Parser.
func (c *Cache) PrimaryHeading(id ID) (string, bool) {
	e := c.get(id)
	return e.parsed.Heading, e.parsed.Heading != ""
}

// RelativePath implements Parser.
func (c *Cache) RelativePath(id ID, projectRoot string) (string, bool) {
	return RelativeDir(id, projectRoot)
}

func (c *Cache) get(id ID) cacheEntry {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return e
	}
	return c.load(id)
}

func (c *Cache) load(id ID) cacheEntry {
	parsed, err := c.source.Parse(id)
	e := cacheEntry{parsed: parsed, readable: err == nil}
	if err != nil {
		c.logger.Debug("document unreadable", "document", id, "error", err)
	}

	c.mu.Lock()
	c.entries[id] = e
	c.mu.Unlock()
	return e
}
