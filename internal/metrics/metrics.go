// Package metrics exposes Prometheus counters for webhook processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	replies  *prometheus.CounterVec
	batches  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_total",
			Help:      "Webhook events by terminal outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relay",
			Name:      "event_duration_seconds",
			Help:      "Time spent handling one webhook event.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"outcome"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "replies_total",
			Help:      "Reply decisions by source.",
		}, []string{"source"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "webhook_batches_total",
			Help:      "Webhook requests accepted.",
		}),
	}

	m.registry.MustRegister(m.events, m.duration, m.replies, m.batches)
	return m
}

// RecordEvent counts one event. Safe on a nil receiver.
func (m *Metrics) RecordEvent(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) RecordReply(source string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordBatch() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
