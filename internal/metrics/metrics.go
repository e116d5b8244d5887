// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes Prometheus collectors for scans, reconciliations
// and the clients of the servers. A nil *Recorder is valid and records
// nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tagscope"

// Recorder records index activity.
type Recorder struct {
	reconciles *prometheus.CounterVec
	batch      prometheus.Histogram
	scan       prometheus.Histogram
	documents  prometheus.Gauge
	tags       prometheus.Gauge
	clients    *prometheus.GaugeVec
	requests   *prometheus.HistogramVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		reconciles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Documents reconciled, by outcome.",
		}, []string{"result"}),
		batch: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_batch_seconds",
			Help:      "Time to parse and apply one reconciliation batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		scan: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_seconds",
			Help:      "Time to scan the whole workspace.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		documents: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Distinct documents bound in the active layout.",
		}),
		tags: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tags",
			Help:      "Distinct tags in the active layout.",
		}),
		clients: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients",
			Help:      "Connected interactive clients, by transport.",
		}, []string{"transport"}),
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP API request latency, by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

// ObserveScan records a full scan.
func (r *Recorder) ObserveScan(d time.Duration, documents, tags int) {
	if r == nil {
		return
	}
	r.scan.Observe(d.Seconds())
	r.setTotals(documents, tags)
}

// ObserveBatch records a reconciliation batch.
func (r *Recorder) ObserveBatch(d time.Duration, updated, deleted, documents, tags int) {
	if r == nil {
		return
	}
	r.batch.Observe(d.Seconds())
	r.reconciles.WithLabelValues("updated").Add(float64(updated))
	r.reconciles.WithLabelValues("deleted").Add(float64(deleted))
	r.setTotals(documents, tags)
}

func (r *Recorder) setTotals(documents, tags int) {
	r.documents.Set(float64(documents))
	r.tags.Set(float64(tags))
}

// ClientConnected counts an interactive client on transport.
func (r *Recorder) ClientConnected(transport string) {
	if r == nil {
		return
	}
	r.clients.WithLabelValues(transport).Inc()
}

// ClientDisconnected releases a client counted by ClientConnected.
func (r *Recorder) ClientDisconnected(transport string) {
	if r == nil {
		return
	}
	r.clients.WithLabelValues(transport).Dec()
}

// ObserveRequest records one HTTP API request.
func (r *Recorder) ObserveRequest(route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
}
