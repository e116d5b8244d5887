// SPDX-License-Identifier: MPL-2.0

package parsecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/tagscope/tagscope/internal/document"
)

const (
	keyPrefix = "doc/"

	// entryVersion invalidates entries written by an incompatible layout.
	entryVersion = 1
)

type (
	// Config holds configuration for the cache database.
	Config struct {
		// Path is the directory for database files. Ignored when InMemory is true.
		Path string
		// InMemory keeps everything in RAM; used by tests.
		InMemory bool
		// SyncWrites trades write latency for durability.
		SyncWrites bool
		// Logger receives badger's internal log output. Nil disables it.
		Logger *log.Logger
		// GCInterval is how often value log GC runs. Zero disables it.
		GCInterval time.Duration
		// GCDiscardRatio is the minimum garbage ratio that triggers a rewrite.
		GCDiscardRatio float64
	}

	// Store is a document.Store backed by BadgerDB. It is safe for
	// concurrent use.
	Store struct {
		db     *badger.DB
		gc     *gcRunner
		logger *log.Logger

		hits   atomic.Int64
		misses atomic.Int64
	}

	// Stats reports lookup outcomes since the store was opened.
	Stats struct {
		Hits   int64 `json:"hits"`
		Misses int64 `json:"misses"`
	}

	entry struct {
		Version int             `json:"v"`
		Stamp   document.Stamp  `json:"stamp"`
		Parsed  document.Parsed `json:"parsed"`
	}

	// badgerLogger adapts a charm logger to badger's Logger interface.
	badgerLogger struct {
		logger *log.Logger
	}
)

var _ document.Store = (*Store)(nil)

// DefaultConfig returns production defaults for a cache rooted at path.
// Writes are not synced: losing the tail of the cache only costs re-parsing.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Open opens the cache database described by cfg, creating its directory
// when needed. The caller must Close the store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.WithPrefix("badger")})
	} else {
		opts = opts.WithLogger(nil)
		logger = log.New(nopWriter{})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open parse cache: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gc = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, logger)
		s.gc.start()
	}
	return s, nil
}

// Get returns the cached parse of id if it was stored with the same stamp.
func (s *Store) Get(id document.ID, stamp document.Stamp) (document.Parsed, bool) {
	var e entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil || e.Version != entryVersion || e.Stamp != stamp {
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn("parse cache read failed", "document", id, "err", err)
		}
		s.misses.Add(1)
		return document.Parsed{}, false
	}
	s.hits.Add(1)
	return e.Parsed, true
}

// Put stores the parse of id under stamp. Failures are logged and dropped.
func (s *Store) Put(id document.ID, stamp document.Stamp, p document.Parsed) {
	data, err := json.Marshal(entry{Version: entryVersion, Stamp: stamp, Parsed: p})
	if err != nil {
		s.logger.Warn("parse cache encode failed", "document", id, "err", err)
		return
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), data)
	}); err != nil {
		s.logger.Warn("parse cache write failed", "document", id, "err", err)
	}
}

// Delete drops the entries of ids.
func (s *Store) Delete(ids ...document.ID) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete(key(id)); err != nil {
			return fmt.Errorf("delete cache entry %s: %w", id, err)
		}
	}
	return wb.Flush()
}

// Prune drops every entry whose document keep rejects and reports how many
// were removed. It is run after a full scan to forget deleted documents.
func (s *Store) Prune(keep func(document.ID) bool) (int, error) {
	var stale []document.ID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			id := document.ID(strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
			if !keep(id) {
				stale = append(stale, id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan parse cache: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.Delete(stale...); err != nil {
		return 0, err
	}
	s.logger.Debug("parse cache pruned", "entries", len(stale))
	return len(stale), nil
}

// Stats returns hit and miss counters.
func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func key(id document.ID) []byte {
	return []byte(keyPrefix + string(id))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
