// Package store holds reconciled state behind a single writer.
//
// Each store is written by exactly one stream supervisor and read through
// snapshots. A snapshot wraps a state value that the reconcilers never
// mutate, and exposes it only through copying accessors, so readers can
// neither race with the writer nor corrupt published state.
package store

import (
	"sync"

	"github.com/selemilka/hivewatch/internal/reconcile"
	"github.com/selemilka/hivewatch/internal/stats"
	"github.com/selemilka/hivewatch/internal/telemetry"
)

const (
	topicStatus  = "status"
	topicMetrics = "metrics"
)

// StatusSnapshot is an immutable view of the status map.
type StatusSnapshot struct {
	set     reconcile.StatusSet
	Version uint64
}

func (s StatusSnapshot) Len() int { return len(s.set) }

func (s StatusSnapshot) Get(id string) (telemetry.ProcessStatus, bool) {
	p, ok := s.set[id]
	return p, ok
}

// List returns the statuses ordered by process id.
func (s StatusSnapshot) List() []telemetry.ProcessStatus {
	return s.set.Sorted()
}

// StatusStore owns the process-id to status map.
type StatusStore struct {
	stats *stats.Stats
	bus   broadcaster[StatusSnapshot]

	mu      sync.RWMutex
	set     reconcile.StatusSet
	version uint64
}

func NewStatusStore(st *stats.Stats) *StatusStore {
	return &StatusStore{
		stats: st,
		bus:   broadcaster[StatusSnapshot]{topic: topicStatus},
		set:   reconcile.StatusSet{},
	}
}

// Apply folds msg into the state and publishes the new snapshot.
func (s *StatusStore) Apply(msg telemetry.StatusMessage) StatusSnapshot {
	s.mu.Lock()
	s.set = reconcile.ApplyStatus(s.set, msg)
	s.version++
	snap := StatusSnapshot{set: s.set, Version: s.version}
	s.mu.Unlock()

	s.stats.Applied(topicStatus, 0, snap.Len())
	s.bus.publish(snap)
	return snap
}

// Reset forgets every status. Used when the status stream ends: a dropped
// stream means nothing is known until the backend resends.
func (s *StatusStore) Reset() StatusSnapshot {
	s.mu.Lock()
	s.set = reconcile.StatusSet{}
	s.version++
	snap := StatusSnapshot{set: s.set, Version: s.version}
	s.mu.Unlock()

	s.stats.Reset(topicStatus)
	s.bus.publish(snap)
	return snap
}

func (s *StatusStore) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{set: s.set, Version: s.version}
}

// Watch returns a channel receiving every published snapshot.
func (s *StatusStore) Watch(bufSize int) <-chan StatusSnapshot { return s.bus.watch(bufSize) }

func (s *StatusStore) Unwatch(ch <-chan StatusSnapshot) { s.bus.unwatch(ch) }

// Watchers returns the number of open watcher channels.
func (s *StatusStore) Watchers() int { return s.bus.count() }

// Close closes all watcher channels.
func (s *StatusStore) Close() { s.bus.closeAll() }

// MetricsSnapshot is an immutable view of the metric series map.
type MetricsSnapshot struct {
	set     reconcile.MetricsSet
	Version uint64
}

func (s MetricsSnapshot) Len() int { return len(s.set) }

// Get returns a copy of the series for id.
func (s MetricsSnapshot) Get(id string) (telemetry.MetricSeries, bool) {
	m, ok := s.set[id]
	if !ok {
		return telemetry.MetricSeries{}, false
	}
	return m.Clone(), true
}

// List returns copies of all series ordered by process id.
func (s MetricsSnapshot) List() []telemetry.MetricSeries {
	out := s.set.Sorted()
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// MetricsStore owns the process-id to metric series map.
type MetricsStore struct {
	window reconcile.Window
	stats  *stats.Stats
	bus    broadcaster[MetricsSnapshot]

	mu      sync.RWMutex
	set     reconcile.MetricsSet
	version uint64
}

func NewMetricsStore(w reconcile.Window, st *stats.Stats) *MetricsStore {
	return &MetricsStore{
		window: w,
		stats:  st,
		bus:    broadcaster[MetricsSnapshot]{topic: topicMetrics},
		set:    reconcile.MetricsSet{},
	}
}

// Apply folds msg into the state and publishes the new snapshot.
func (s *MetricsStore) Apply(msg telemetry.MetricsMessage) MetricsSnapshot {
	s.mu.Lock()
	next, dropped := reconcile.ApplyMetricsSet(s.set, msg, s.window)
	s.set = next
	s.version++
	snap := MetricsSnapshot{set: s.set, Version: s.version}
	s.mu.Unlock()

	s.stats.Applied(topicMetrics, dropped, snap.Len())
	s.bus.publish(snap)
	return snap
}

func (s *MetricsStore) Snapshot() MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MetricsSnapshot{set: s.set, Version: s.version}
}

func (s *MetricsStore) Watch(bufSize int) <-chan MetricsSnapshot { return s.bus.watch(bufSize) }

func (s *MetricsStore) Unwatch(ch <-chan MetricsSnapshot) { s.bus.unwatch(ch) }

func (s *MetricsStore) Watchers() int { return s.bus.count() }

func (s *MetricsStore) Close() { s.bus.closeAll() }
