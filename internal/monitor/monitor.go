// Package monitor is the reconciliation context: it owns the status and
// metrics subscriptions and the stores they feed.
package monitor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/selemilka/hivewatch/internal/config"
	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/retry"
	"github.com/selemilka/hivewatch/internal/stats"
	"github.com/selemilka/hivewatch/internal/store"
	"github.com/selemilka/hivewatch/internal/stream"
	"github.com/selemilka/hivewatch/internal/telemetry"
)

const (
	StatusStream  = "status"
	MetricsStream = "metrics"
)

// ErrUnsupported is returned by StartApp and StopApp when the backend
// cannot control apps.
var ErrUnsupported = errors.New("monitor: backend does not control apps")

// Backend is the dashboard RPC surface the Monitor depends on.
type Backend interface {
	// RequireProcesses fails until the backend lists at least one process.
	RequireProcesses(ctx context.Context) error
	StreamStatus(ctx context.Context, filter string) (stream.Receiver[telemetry.StatusMessage], error)
	StreamMetrics(ctx context.Context, filter string) (stream.Receiver[telemetry.MetricsMessage], error)
}

// AppController is implemented by backends that can start and stop apps.
type AppController interface {
	StartApp(ctx context.Context, id string) error
	StopApp(ctx context.Context, id string) error
}

type Option func(*Monitor)

// WithStats counts retries, reconnects and applied messages in st.
func WithStats(st *stats.Stats) Option {
	return func(m *Monitor) { m.stats = st }
}

// WithTimer replaces the retry wait timer.
func WithTimer(t backoff.Timer) Option {
	return func(m *Monitor) { m.timer = t }
}

// Monitor keeps the reconciled view of one dashboard backend.
type Monitor struct {
	cfg     config.Config
	backend Backend
	stats   *stats.Stats
	timer   backoff.Timer
	log     *slog.Logger

	status  *store.StatusStore
	metrics *store.MetricsStore

	statusSub  *stream.Supervisor[telemetry.StatusMessage]
	metricsSub *stream.Supervisor[telemetry.MetricsMessage]
}

func New(cfg config.Config, backend Backend, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:     cfg,
		backend: backend,
		log:     hwlog.For("monitor"),
	}
	for _, o := range opts {
		o(m)
	}

	m.status = store.NewStatusStore(m.stats)
	m.metrics = store.NewMetricsStore(cfg.Reconcile.Window(), m.stats)

	ro := retry.Options{
		Delay:       cfg.Reconcile.RetryDelay,
		MaxAttempts: cfg.Reconcile.MaxRetryAttempts,
		Timer:       m.timer,
		Stats:       m.stats,
	}

	m.statusSub = stream.New(StatusStream, backend.RequireProcesses, backend.StreamStatus,
		stream.Handlers[telemetry.StatusMessage]{
			OnMessage: func(msg telemetry.StatusMessage) { m.status.Apply(msg) },
			OnEnd: func(err error) {
				// Statuses are only trusted while the stream is live.
				snap := m.status.Reset()
				m.log.Info("status stream ended, statuses cleared", "version", snap.Version)
			},
		}, ro)

	m.metricsSub = stream.New(MetricsStream, backend.RequireProcesses, backend.StreamMetrics,
		stream.Handlers[telemetry.MetricsMessage]{
			OnMessage: func(msg telemetry.MetricsMessage) { m.metrics.Apply(msg) },
			OnEnd: func(err error) {
				m.log.Info("metrics stream ended, series retained", "series", m.metrics.Snapshot().Len())
			},
		}, ro)

	return m
}

// Start subscribes both streams with the configured filters.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.SubscribeStatus(ctx, m.cfg.StatusFilter); err != nil {
		return err
	}
	if err := m.SubscribeMetrics(ctx, m.cfg.MetricsFilter); err != nil {
		m.statusSub.Close()
		return err
	}
	m.log.Info("monitor started", "status_filter", m.cfg.StatusFilter, "metrics_filter", m.cfg.MetricsFilter)
	return nil
}

func (m *Monitor) SubscribeStatus(ctx context.Context, filter string) error {
	return m.statusSub.Subscribe(ctx, filter)
}

func (m *Monitor) SubscribeMetrics(ctx context.Context, filter string) error {
	return m.metricsSub.Subscribe(ctx, filter)
}

// CloseStatus stops the status subscription. It can be subscribed again.
func (m *Monitor) CloseStatus() { m.statusSub.Close() }

// CloseMetrics stops the metrics subscription. It can be subscribed again.
func (m *Monitor) CloseMetrics() { m.metricsSub.Close() }

// Close stops both subscriptions and closes every watcher channel.
func (m *Monitor) Close() {
	m.statusSub.Close()
	m.metricsSub.Close()
	m.status.Close()
	m.metrics.Close()
	m.log.Info("monitor closed")
}

func (m *Monitor) Statuses() store.StatusSnapshot { return m.status.Snapshot() }

func (m *Monitor) Metrics() store.MetricsSnapshot { return m.metrics.Snapshot() }

// WatchStatus returns a channel receiving every status snapshot. A watcher
// that falls behind misses snapshots rather than blocking the stream.
func (m *Monitor) WatchStatus(bufSize int) <-chan store.StatusSnapshot {
	return m.status.Watch(bufSize)
}

func (m *Monitor) UnwatchStatus(ch <-chan store.StatusSnapshot) { m.status.Unwatch(ch) }

func (m *Monitor) WatchMetrics(bufSize int) <-chan store.MetricsSnapshot {
	return m.metrics.Watch(bufSize)
}

func (m *Monitor) UnwatchMetrics(ch <-chan store.MetricsSnapshot) { m.metrics.Unwatch(ch) }

// Watchers returns the number of open snapshot watchers across both stores.
func (m *Monitor) Watchers() int { return m.status.Watchers() + m.metrics.Watchers() }

// Subscriptions returns the state of both subscriptions.
func (m *Monitor) Subscriptions() []stream.SubscriptionState {
	return []stream.SubscriptionState{m.statusSub.State(), m.metricsSub.State()}
}

func (m *Monitor) StartApp(ctx context.Context, id string) error {
	ac, ok := m.backend.(AppController)
	if !ok {
		return ErrUnsupported
	}
	m.log.Info("starting app", "app", id)
	return ac.StartApp(ctx, id)
}

func (m *Monitor) StopApp(ctx context.Context, id string) error {
	ac, ok := m.backend.(AppController)
	if !ok {
		return ErrUnsupported
	}
	m.log.Info("stopping app", "app", id)
	return ac.StopApp(ctx, id)
}
