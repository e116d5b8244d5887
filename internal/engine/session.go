// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tagscope/tagscope/internal/category"
	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/metrics"
	"github.com/tagscope/tagscope/internal/tagtree"
)

type (
	// Preloader parses documents ahead of a tree update.
	Preloader interface {
		Load(id document.ID) bool
		Invalidate(ids ...document.ID)
	}

	// Update describes a change applied to the tree.
	Update struct {
		Time      time.Time
		Rescan    bool
		Documents []document.ID
		Result    BatchResult
	}

	// Session serializes all access to an Engine.
	//
	// Mutations parse their documents first, without holding the tree lock,
	// then apply all results in one locked step. Readers use View and never
	// see a half-applied update. Documents submitted while an update is in
	// flight are collected and reconciled together afterwards.
	Session struct {
		id       uuid.UUID
		engine   *Engine
		loader   Preloader
		recorder *metrics.Recorder
		logger   *log.Logger
		workers  int

		// applyMu orders whole updates (parse and apply).
		applyMu sync.Mutex
		// mu guards the engine.
		mu         sync.RWMutex
		lastUpdate time.Time

		queueMu sync.Mutex
		dirty   map[document.ID]struct{}
		wake    chan struct{}

		subMu       sync.Mutex
		subscribers map[int]chan Update
		nextSub     int
	}

	// SessionOption configures a Session.
	SessionOption func(*Session)
)

// WithRecorder records scans and batches.
func WithRecorder(r *metrics.Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l *log.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithWorkers bounds the number of documents parsed concurrently.
func WithWorkers(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSession wraps engine. loader is typically the document.Cache the
// engine's parser reads from; it may be nil when parsing is cheap.
func NewSession(engine *Engine, loader Preloader, opts ...SessionOption) *Session {
	s := &Session{
		id:          uuid.New(),
		engine:      engine,
		loader:      loader,
		logger:      log.New(io.Discard),
		workers:     runtime.GOMAXPROCS(0),
		dirty:       make(map[document.ID]struct{}),
		wake:        make(chan struct{}, 1),
		subscribers: make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id.String() }

// LastUpdate returns when the tree last changed.
func (s *Session) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// View runs fn with shared access to the engine. fn must not mutate it or
// retain nodes past its return.
func (s *Session) View(fn func(e *Engine)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.engine)
}

// Rescan rebuilds the active layout from a full scan.
func (s *Session) Rescan(ctx context.Context) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	return s.rebuild(ctx, func(e *Engine, ids []document.ID) {
		e.Build(ids)
	})
}

// SwitchLayout activates kind, scanning only if the layout has never been
// built. It reports whether a scan happened.
func (s *Session) SwitchLayout(ctx context.Context, kind tagtree.LayoutKind) (bool, error) {
	if err := kind.Validate(); err != nil {
		return false, err
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.RLock()
	same := s.engine.Layout().Kind() == kind
	needsScan := s.engine.NeedsScan(kind)
	s.mu.RUnlock()
	if same {
		return false, nil
	}

	if !needsScan {
		s.mu.Lock()
		s.engine.SwitchLayout(kind)
		s.lastUpdate = time.Now()
		s.mu.Unlock()
		s.publish(Update{Time: s.lastUpdate})
		return false, nil
	}

	err := s.rebuild(ctx, func(e *Engine, ids []document.ID) {
		e.UseLayout(kind)
		e.Build(ids)
	})
	return err == nil, err
}

// ReloadMappings replaces the category mappings and rebuilds.
func (s *Session) ReloadMappings(ctx context.Context, scopes ...[]category.Mapping) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	return s.rebuild(ctx, func(e *Engine, ids []document.ID) {
		e.SetMappings(scopes...)
		e.Build(ids)
	})
}

func (s *Session) rebuild(ctx context.Context, apply func(e *Engine, ids []document.ID)) error {
	start := time.Now()
	ids := s.engine.Workspace().Documents()
	if s.loader != nil {
		s.loader.Invalidate(ids...)
	}
	if err := s.preload(ctx, ids); err != nil {
		return err
	}

	s.mu.Lock()
	apply(s.engine, ids)
	summary := s.engine.Summary()
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.recorder.ObserveScan(time.Since(start), summary.Documents, summary.Tags)
	s.logger.Info("workspace scanned", "session", s.ID(), "documents", len(ids), "tags", summary.Tags)
	s.publish(Update{Time: s.lastUpdate, Rescan: true, Documents: ids})
	return nil
}

// Submit queues documents for reconciliation by Run.
func (s *Session) Submit(ids ...document.ID) {
	if len(ids) == 0 {
		return
	}
	s.queueMu.Lock()
	for _, id := range ids {
		s.dirty[id] = struct{}{}
	}
	s.queueMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued documents.
func (s *Session) Pending() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.dirty)
}

// Run reconciles submitted documents until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
			for {
				batch := s.takeDirty()
				if len(batch) == 0 {
					break
				}
				if _, err := s.Apply(ctx, batch...); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					s.logger.Error("reconciliation failed", "error", err)
				}
			}
		}
	}
}

func (s *Session) takeDirty() []document.ID {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	batch := make([]document.ID, 0, len(s.dirty))
	for id := range s.dirty {
		batch = append(batch, id)
	}
	clear(s.dirty)
	slices.Sort(batch)
	return batch
}

// Apply parses the documents and reconciles them in one batch, bypassing
// the queue.
func (s *Session) Apply(ctx context.Context, ids ...document.ID) (BatchResult, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	start := time.Now()
	if s.loader != nil {
		s.loader.Invalidate(ids...)
	}
	if err := s.preload(ctx, ids); err != nil {
		return BatchResult{}, err
	}

	s.mu.Lock()
	result := s.engine.ReconcileBatch(ids)
	summary := s.engine.Summary()
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.recorder.ObserveBatch(time.Since(start), result.Updated, result.Deleted, summary.Documents, summary.Tags)
	s.logger.Debug("batch applied", "session", s.ID(), "updated", result.Updated, "deleted", result.Deleted)
	s.publish(Update{Time: s.lastUpdate, Documents: ids, Result: result})
	return result, nil
}

func (s *Session) preload(ctx context.Context, ids []document.ID) error {
	if s.loader == nil {
		return ctx.Err()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.loader.Load(id)
			return nil
		})
	}
	return g.Wait()
}

// Subscribe returns a channel that receives the latest update. Updates
// are dropped for subscribers that have not consumed the previous one. The
// returned function unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) publish(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}

// Close disposes the engine. The session must not be used afterwards.
func (s *Session) Close() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Dispose()
}
