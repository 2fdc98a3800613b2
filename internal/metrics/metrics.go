// Package metrics exposes Prometheus counters for the record stores.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeNotPersisted = "not_persisted"
	OutcomeFailed       = "failed"
)

type Recorder struct {
	registry      *prometheus.Registry
	ops           *prometheus.CounterVec
	failures      *prometheus.CounterVec
	misses        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freelance",
			Name:      "store_operations_total",
			Help:      "Store operations by domain, operation and outcome.",
		}, []string{"domain", "op", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freelance",
			Name:      "storage_failures_total",
			Help:      "Storage calls that returned an error.",
		}, []string{"domain", "call"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freelance",
			Name:      "store_corrupt_entries_total",
			Help:      "Stored values ignored because they failed to decode or validate.",
		}, []string{"domain"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freelance",
			Name:      "store_change_notifications_total",
			Help:      "Change notifications delivered to subscribers, by source.",
		}, []string{"domain", "source"}),
	}
	r.registry.MustRegister(
		r.ops, r.failures, r.misses, r.notifications,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Op(domain, op, outcome string) {
	if r == nil {
		return
	}
	r.ops.WithLabelValues(domain, op, outcome).Inc()
}

func (r *Recorder) StorageFailure(domain, call string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(domain, call).Inc()
}

func (r *Recorder) CorruptEntry(domain string) {
	if r == nil {
		return
	}
	r.misses.WithLabelValues(domain).Inc()
}

func (r *Recorder) Notification(domain, source string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(domain, source).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
