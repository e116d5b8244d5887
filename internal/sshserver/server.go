// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"github.com/tagscope/tagscope/internal/config"
	"github.com/tagscope/tagscope/internal/core/serverbase"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/metrics"
	"github.com/tagscope/tagscope/internal/tagtree"
	"github.com/tagscope/tagscope/internal/tui"
)

// transport labels SSH clients in the metrics.
const transport = "ssh"

type (
	// Server serves the tag tree browser over SSH.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		*serverbase.Base

		cfg     Config
		session *engine.Session
		logger  *log.Logger

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host string
		// Port is the port to listen on (0 = auto-select)
		Port int
		// HostKeyPath is the ed25519 host key, created when missing.
		// Empty uses an ephemeral key.
		HostKeyPath string
		// AuthorizedKeysPath restricts access to the listed public keys.
		// Empty accepts every client.
		AuthorizedKeysPath string
		// Statistics is the initial label mode of every browser.
		Statistics tagtree.Statistics
		// StartupTimeout is the max time to wait for the server to be ready (default: 5s)
		StartupTimeout time.Duration
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s)
		ShutdownTimeout time.Duration
		// Logger receives lifecycle and connection logs.
		Logger *log.Logger
		// Recorder counts connected clients. Nil disables metrics.
		Recorder *metrics.Recorder
	}
)

// DefaultConfig returns the configuration used by `tagscope serve`.
func DefaultConfig() Config {
	return Config{
		Host:            config.DefaultSSHHost,
		Port:            config.DefaultSSHPort,
		Statistics:      tagtree.StatisticsSimplified,
		StartupTimeout:  5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate returns nil if the host and port are usable.
func (c Config) Validate() error {
	var errs []error
	if err := HostAddress(c.Host).Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := ListenPort(c.Port).Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Statistics != "" {
		if err := c.Statistics.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &InvalidSSHConfigError{FieldErrors: errs}
	}
	return nil
}

// New creates a server browsing session. The server is not started; call
// Start to begin accepting connections.
func New(cfg Config, session *engine.Session) *Server {
	if cfg.Host == "" {
		cfg.Host = config.DefaultSSHHost
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Statistics == "" {
		cfg.Statistics = tagtree.StatisticsSimplified
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "ssh-server"})
	}

	return &Server{
		Base:    serverbase.NewBase(),
		cfg:     cfg,
		session: session,
		logger:  logger,
	}
}

// Start starts the SSH server and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The server fails to start (returns error)
//   - The context is cancelled (returns context error)
//   - The startup timeout is exceeded (returns error)
//
// After Start returns nil, use Err to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		s.TransitionToFailed(err)
		return err
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.TransitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.LastError()
	}

	srv, err := wish.NewServer(s.options(addr)...)
	if err != nil {
		_ = listener.Close() // Best-effort cleanup on error
		s.TransitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	s.Go(func(context.Context) { s.serve(srv, listener) })

	select {
	case <-s.StartedChannel():
		s.logger.Info("SSH server started", "address", s.addr)
		return nil
	case err := <-s.Err():
		s.TransitionToFailed(err)
		return err
	case <-startupCtx.Done():
		s.TransitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

func (s *Server) options(addr string) []ssh.Option {
	opts := []ssh.Option{
		wish.WithAddress(addr),
		// Middlewares run last to first.
		wish.WithMiddleware(
			bm.Middleware(s.browserHandler),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(s.logger),
		),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}
	if s.cfg.AuthorizedKeysPath != "" {
		opts = append(opts, wish.WithAuthorizedKeys(s.cfg.AuthorizedKeysPath))
	}
	return opts
}

// browserHandler builds the browser of one SSH session.
func (s *Server) browserHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	updates, unsubscribe := s.session.Subscribe()
	s.cfg.Recorder.ClientConnected(transport)
	s.logger.Debug("browser session opened", "user", sess.User(), "remote", sess.RemoteAddr())

	s.Go(func(ctx context.Context) {
		select {
		case <-sess.Context().Done():
		case <-ctx.Done():
		}
		unsubscribe()
		s.cfg.Recorder.ClientDisconnected(transport)
	})

	pty, _, _ := sess.Pty()
	browser := tui.NewBrowser(s.session, tui.BrowserOptions{
		Title:      "tagscope · " + sess.User(),
		Statistics: s.cfg.Statistics,
		Updates:    updates,
		Context:    sess.Context(),
		Renderer:   bm.MakeRenderer(sess),
		Width:      pty.Window.Width,
		Height:     pty.Window.Height,
	})
	return browser, []tea.ProgramOption{tea.WithAltScreen()}
}

func (s *Server) serve(srv *ssh.Server, listener net.Listener) {
	s.TransitionToRunning()

	err := srv.Serve(listener)
	if err == nil || errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	s.SendError(fmt.Errorf("serve error: %w", err))
}

// Stop gracefully stops the SSH server.
// It blocks until all sessions are closed or the shutdown timeout is reached.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	return s.Shutdown(s.cfg.ShutdownTimeout, s.shutdown)
}

func (s *Server) shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()

	var err error
	if s.srv != nil {
		err = s.srv.Shutdown(ctx)
		if err != nil && (isClosedConnError(err) || errors.Is(err, ssh.ErrServerClosed)) {
			err = nil
		}
		if err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
	}
	if s.listener != nil {
		_ = s.listener.Close() // Best-effort cleanup during shutdown
	}
	s.logger.Info("SSH server stopped")
	return err
}

// Address returns the server's bound address (host:port).
// Blocks until the server has started or failed.
// Returns empty string if server never started or failed.
func (s *Server) Address() string {
	ctx := s.Context()
	if ctx == nil {
		return ""
	}
	select {
	case <-s.StartedChannel():
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	case <-ctx.Done():
		return ""
	}
}

// Port returns the server's listening port, or 0 if it is not listening.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// Host returns the server's configured host address.
func (s *Server) Host() string {
	return s.cfg.Host
}

// Wait blocks until the server stops.
// Returns the error if the server failed, nil otherwise.
func (s *Server) Wait() error {
	s.WaitForShutdown()
	if s.State() == serverbase.StateFailed {
		return s.LastError()
	}
	return nil
}

// isClosedConnError reports whether err is the error returned when
// shutting down an already closed listener.
func isClosedConnError(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	return opErr.Err != nil && opErr.Err.Error() == "use of closed network connection"
}
