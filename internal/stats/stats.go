// Package stats exposes Prometheus counters for the reconciliation layer.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stats groups the collectors updated by retry, stream and store code.
// A nil *Stats is valid and records nothing.
type Stats struct {
	RetryAttempts   *prometheus.CounterVec
	RetryFailures   *prometheus.CounterVec
	StreamEnds      *prometheus.CounterVec
	MessagesApplied *prometheus.CounterVec
	EntriesDropped  *prometheus.CounterVec
	Processes       *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Stats {
	s := &Stats{
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hivewatch",
			Name:      "retry_attempts_total",
			Help:      "Attempts made by the retry driver, per operation.",
		}, []string{"operation"}),
		RetryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hivewatch",
			Name:      "retry_failures_total",
			Help:      "Failed attempts made by the retry driver, per operation.",
		}, []string{"operation"}),
		StreamEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hivewatch",
			Name:      "stream_ends_total",
			Help:      "Server streams that ended and triggered a reconnect.",
		}, []string{"stream"}),
		MessagesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hivewatch",
			Name:      "messages_applied_total",
			Help:      "Inbound stream messages folded into reconciled state.",
		}, []string{"stream"}),
		EntriesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hivewatch",
			Name:      "metric_entries_dropped_total",
			Help:      "Metric entries discarded during reconciliation.",
		}, []string{"stream"}),
		Processes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hivewatch",
			Name:      "tracked_processes",
			Help:      "Processes currently held in reconciled state.",
		}, []string{"stream"}),
	}
	if reg != nil {
		reg.MustRegister(
			s.RetryAttempts,
			s.RetryFailures,
			s.StreamEnds,
			s.MessagesApplied,
			s.EntriesDropped,
			s.Processes,
		)
	}
	return s
}

func (s *Stats) Attempt(operation string, err error) {
	if s == nil {
		return
	}
	s.RetryAttempts.WithLabelValues(operation).Inc()
	if err != nil {
		s.RetryFailures.WithLabelValues(operation).Inc()
	}
}

func (s *Stats) StreamEnded(stream string) {
	if s == nil {
		return
	}
	s.StreamEnds.WithLabelValues(stream).Inc()
}

func (s *Stats) Applied(stream string, dropped, processes int) {
	if s == nil {
		return
	}
	s.MessagesApplied.WithLabelValues(stream).Inc()
	if dropped > 0 {
		s.EntriesDropped.WithLabelValues(stream).Add(float64(dropped))
	}
	s.Processes.WithLabelValues(stream).Set(float64(processes))
}

func (s *Stats) Reset(stream string) {
	if s == nil {
		return
	}
	s.Processes.WithLabelValues(stream).Set(0)
}
