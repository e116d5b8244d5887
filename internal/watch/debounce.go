// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tagscope/tagscope/internal/document"
)

// debouncer accumulates changes and hands them to flush once delay has
// passed without a new change. While a flush runs, the next one is pushed
// back by another delay so batches never overlap.
type debouncer struct {
	delay time.Duration
	flush func(Batch)

	mu     sync.Mutex
	docs   map[document.ID]struct{}
	rescan bool
	timer  *time.Timer

	busy atomic.Bool
}

func newDebouncer(delay time.Duration, flush func(Batch)) *debouncer {
	return &debouncer{
		delay: delay,
		flush: flush,
		docs:  make(map[document.ID]struct{}),
	}
}

// add records a change and restarts the quiet period.
func (d *debouncer) add(id document.ID, doc, rescan bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if doc {
		d.docs[id] = struct{}{}
	}
	d.rescan = d.rescan || rescan
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *debouncer) fire() {
	if !d.busy.CompareAndSwap(false, true) {
		d.mu.Lock()
		if d.timer != nil {
			d.timer.Reset(d.delay)
		}
		d.mu.Unlock()
		return
	}
	defer d.busy.Store(false)

	if b, ok := d.take(); ok {
		d.flush(b)
	}
}

// take drains the pending changes.
func (d *debouncer) take() (Batch, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.docs) == 0 && !d.rescan {
		return Batch{}, false
	}
	b := Batch{
		Documents: slices.Sorted(maps.Keys(d.docs)),
		Rescan:    d.rescan,
	}
	clear(d.docs)
	d.rescan = false
	return b, true
}

// stop cancels a pending flush. A flush already running completes.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
