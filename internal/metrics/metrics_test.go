// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_ObserveBatch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveBatch(time.Millisecond, 3, 1, 10, 4)
	r.ObserveBatch(time.Millisecond, 1, 0, 9, 4)

	if got := testutil.ToFloat64(r.reconciles.WithLabelValues("updated")); got != 4 {
		t.Errorf("updated = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.reconciles.WithLabelValues("deleted")); got != 1 {
		t.Errorf("deleted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.documents); got != 9 {
		t.Errorf("documents = %v, want 9", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveScan(time.Second, 1, 1)
	r.ObserveBatch(time.Second, 1, 1, 1, 1)
	r.ClientConnected("ssh")
	r.ClientDisconnected("ssh")
	r.ObserveRequest("/v1/tree", 200, time.Millisecond)
}

func TestRecorder_Clients(t *testing.T) {
	t.Parallel()

	r := NewRecorder(prometheus.NewRegistry())
	r.ClientConnected("ssh")
	r.ClientConnected("ssh")
	r.ClientDisconnected("ssh")

	if got := testutil.ToFloat64(r.clients.WithLabelValues("ssh")); got != 1 {
		t.Errorf("ssh clients = %v, want 1", got)
	}
}

func TestRecorder_ObserveRequest(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveRequest("/v1/tree", 200, time.Millisecond)
	r.ObserveRequest("/v1/tree", 400, time.Millisecond)

	if got := testutil.CollectAndCount(r.requests); got != 2 {
		t.Errorf("request series = %d, want 2", got)
	}
}
