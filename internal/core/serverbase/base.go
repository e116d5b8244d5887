// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Base is the embeddable lifecycle of a single-use server. Once stopped or
// failed, a server cannot be restarted.
type Base struct {
	state atomic.Int32

	// stateMu guards lastErr.
	stateMu sync.Mutex
	lastErr error

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error
	closeOnce sync.Once
}

// NewBase returns a Base in StateCreated.
func NewBase() *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the server is accepting connections.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns the channel of asynchronous server errors. It is closed once
// the server has stopped.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that failed the server, or nil.
func (b *Base) LastError() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.lastErr
}

// TransitionToStarting moves Created to Starting and creates the server
// context. An already canceled ctx fails the server before any setup.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	select {
	case <-ctx.Done():
		b.TransitionToFailed(fmt.Errorf("context canceled before start: %w", ctx.Err()))
		return b.LastError()
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning moves Starting to Running and releases WaitForReady.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// TransitionToFailed records err, cancels the server context and reports
// err on the error channel if there is room.
func (b *Base) TransitionToFailed(err error) {
	b.stateMu.Lock()
	b.lastErr = err
	b.stateMu.Unlock()

	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// TransitionToStopping moves Starting or Running to Stopping and cancels
// the server context. It reports false when there is nothing to stop; a
// server that never started goes straight to Stopped.
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		switch current {
		case StateStopped, StateFailed, StateStopping:
			return false
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// TransitionToStopped marks the server stopped. Call it after every tracked
// goroutine has returned.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// Shutdown stops a starting or running server: it cancels the server
// context, runs stop with a context bounded by timeout, waits for tracked
// goroutines, then marks the server stopped and closes the error channel.
// Concurrent and repeated calls wait for the first one to finish and
// return nil.
func (b *Base) Shutdown(timeout time.Duration, stop func(ctx context.Context) error) error {
	if !b.TransitionToStopping() {
		b.WaitForShutdown()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	if stop != nil {
		err = stop(ctx)
	}

	b.WaitForShutdown()
	b.TransitionToStopped()
	b.CloseErrChannel()
	return err
}

// WaitForShutdown blocks until every tracked goroutine has returned.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// Context returns the server context, or nil before Start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Go runs fn in a tracked goroutine with the server context.
func (b *Base) Go(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}

// SendError reports err without blocking; it is dropped when the channel
// is full or already closed.
func (b *Base) SendError(err error) {
	if b.State() == StateStopped {
		return
	}
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErrChannel closes the error channel once.
func (b *Base) CloseErrChannel() {
	b.closeOnce.Do(func() { close(b.errCh) })
}

// StartedChannel is closed when the server transitions to Running.
func (b *Base) StartedChannel() <-chan struct{} {
	return b.startedCh
}
