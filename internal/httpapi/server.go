// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tagscope/tagscope/internal/config"
	"github.com/tagscope/tagscope/internal/core/serverbase"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/metrics"
)

type (
	// Config holds immutable configuration for the HTTP server.
	Config struct {
		// Addr is the listen address (default: 127.0.0.1:8089).
		Addr string
		// Gatherer backs /metrics. Nil disables the endpoint.
		Gatherer prometheus.Gatherer
		// Recorder records request latencies and event clients.
		Recorder *metrics.Recorder
		// Logger receives lifecycle and handler logs.
		Logger *log.Logger
		// StartupTimeout is the max time to wait for the listener (default: 5s).
		StartupTimeout time.Duration
		// ShutdownTimeout bounds graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
	}

	// Server serves the HTTP API of one indexing session.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		*serverbase.Base

		cfg    Config
		logger *log.Logger
		http   *http.Server

		mu   sync.Mutex
		addr string
	}
)

// DefaultConfig returns the configuration used by `tagscope serve`.
func DefaultConfig() Config {
	return Config{
		Addr:            config.DefaultHTTPAddr,
		StartupTimeout:  5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// New creates an HTTP server for session. Call Start to begin serving.
func New(cfg Config, session *engine.Session) *Server {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultHTTPAddr
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	router := NewRouter(NewHandlers(session, cfg.Recorder, logger), cfg.Gatherer)
	return &Server{
		Base:   serverbase.NewBase(),
		cfg:    cfg,
		logger: logger,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start listens on the configured address and serves in the background.
// After Start returns nil, use Err to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", s.cfg.Addr)
	if err != nil {
		s.TransitionToFailed(fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err))
		return s.LastError()
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	// Streaming handlers end with the server context.
	s.http.BaseContext = func(net.Listener) context.Context { return s.Context() }

	s.Go(func(context.Context) {
		s.TransitionToRunning()
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.SendError(fmt.Errorf("serve error: %w", err))
		}
	})

	select {
	case <-s.StartedChannel():
		s.logger.Info("HTTP API started", "address", s.Address())
		return nil
	case <-startupCtx.Done():
		_ = listener.Close() // Best-effort cleanup on error
		s.TransitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

// Stop gracefully shuts the server down. Safe to call multiple times.
func (s *Server) Stop() error {
	return s.Shutdown(s.cfg.ShutdownTimeout, func(ctx context.Context) error {
		err := s.http.Shutdown(ctx)
		s.logger.Info("HTTP API stopped")
		return err
	})
}

// Address returns the bound address, or empty before Start.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the router, for in-process use.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
