// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer drives Base the way sshserver and httpapi do.
type fakeServer struct {
	*Base
	stopped atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{Base: NewBase()}
}

func (f *fakeServer) Start(ctx context.Context) error {
	if err := f.TransitionToStarting(ctx); err != nil {
		return err
	}
	f.Go(func(ctx context.Context) {
		<-ctx.Done()
	})
	f.TransitionToRunning()
	return nil
}

func (f *fakeServer) Stop() error {
	return f.Shutdown(time.Second, func(context.Context) error {
		f.stopped.Add(1)
		return nil
	})
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	s := newFakeServer()
	if s.State() != StateCreated {
		t.Fatalf("initial state = %s, want created", s.State())
	}
	if s.Context() != nil {
		t.Error("Context() before Start should be nil")
	}

	if err := s.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("state after Start = %s, want running", s.State())
	}
	select {
	case <-s.StartedChannel():
	default:
		t.Error("StartedChannel should be closed once running")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state after Stop = %s, want stopped", s.State())
	}
	if s.stopped.Load() != 1 {
		t.Errorf("stop callback ran %d times, want 1", s.stopped.Load())
	}
	if _, ok := <-s.Err(); ok {
		t.Error("Err() should be closed after Stop")
	}
}

func TestStartTwice(t *testing.T) {
	t.Parallel()

	s := newFakeServer()
	if err := s.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if err := s.Start(t.Context()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newFakeServer()
	if err := s.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if err := s.Stop(); err != nil {
				t.Errorf("Stop() error = %v", err)
			}
		})
	}
	wg.Wait()

	if s.stopped.Load() != 1 {
		t.Errorf("stop callback ran %d times, want 1", s.stopped.Load())
	}
	if s.State() != StateStopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	s := newFakeServer()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
	if s.stopped.Load() != 0 {
		t.Error("stop callback should not run for a server that never started")
	}
	if err := s.Start(t.Context()); err == nil {
		t.Error("Start() after Stop should fail")
	}
}

func TestStartWithCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	s := newFakeServer()
	err := s.Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() error = %v, want context.Canceled", err)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	if !errors.Is(s.LastError(), context.Canceled) {
		t.Errorf("LastError() = %v", s.LastError())
	}
}

func TestTransitionToFailedReportsError(t *testing.T) {
	t.Parallel()

	s := newFakeServer()
	if err := s.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	boom := errors.New("listener closed")
	s.TransitionToFailed(boom)

	select {
	case err := <-s.Err():
		if !errors.Is(err, boom) {
			t.Errorf("Err() = %v, want %v", err, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}
	if s.Context().Err() == nil {
		t.Error("server context should be canceled after failure")
	}
	if !s.State().IsTerminal() {
		t.Errorf("state %s should be terminal", s.State())
	}
}

func TestSendErrorDoesNotBlock(t *testing.T) {
	t.Parallel()

	b := NewBase()
	done := make(chan struct{})
	go func() {
		for range 5 {
			b.SendError(errors.New("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendError blocked on a full channel")
	}
}

func TestShutdownWaitsForGoroutines(t *testing.T) {
	t.Parallel()

	b := NewBase()
	if err := b.TransitionToStarting(t.Context()); err != nil {
		t.Fatal(err)
	}
	var finished atomic.Bool
	b.Go(func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	b.TransitionToRunning()

	if err := b.Shutdown(time.Second, nil); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Shutdown returned before tracked goroutine finished")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateCreated:  "created",
		StateStarting: "starting",
		StateRunning:  "running",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		StateFailed:   "failed",
		State(42):     "unknown",
		State(-1):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}

	if StateRunning.IsTerminal() || !StateFailed.IsTerminal() || !StateStopped.IsTerminal() {
		t.Error("IsTerminal() mismatch")
	}
}
