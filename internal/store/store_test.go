package store

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/selemilka/hivewatch/internal/reconcile"
	"github.com/selemilka/hivewatch/internal/stats"
	"github.com/selemilka/hivewatch/internal/telemetry"
)

func statusMsg(ps ...telemetry.ProcessStatus) telemetry.StatusMessage {
	return telemetry.StatusMessage{Processes: ps}
}

func TestStatusStore_ApplyAndReset(t *testing.T) {
	st := stats.New(nil)
	s := NewStatusStore(st)

	snap := s.Apply(statusMsg(
		telemetry.ProcessStatus{ID: "b", Status: telemetry.StatusRunning},
		telemetry.ProcessStatus{ID: "a", Status: telemetry.StatusCreated},
	))
	if snap.Len() != 2 || snap.Version != 1 {
		t.Fatalf("len=%d version=%d, want 2 and 1", snap.Len(), snap.Version)
	}
	if list := snap.List(); list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("list=%+v, want sorted by id", list)
	}
	if got := testutil.ToFloat64(st.Processes.WithLabelValues("status")); got != 2 {
		t.Errorf("tracked gauge=%v, want 2", got)
	}

	reset := s.Reset()
	if reset.Len() != 0 || reset.Version != 2 {
		t.Fatalf("after reset len=%d version=%d", reset.Len(), reset.Version)
	}
	// The earlier snapshot is unaffected by later writes.
	if snap.Len() != 2 {
		t.Errorf("old snapshot len=%d, want 2", snap.Len())
	}
	if _, ok := s.Snapshot().Get("a"); ok {
		t.Error("status survived Reset")
	}
}

func TestStatusStore_Watch(t *testing.T) {
	s := NewStatusStore(nil)
	ch := s.Watch(4)

	s.Apply(statusMsg(telemetry.ProcessStatus{ID: "a"}))
	s.Reset()

	for _, want := range []int{1, 0} {
		select {
		case snap := <-ch:
			if snap.Len() != want {
				t.Errorf("snapshot len=%d, want %d", snap.Len(), want)
			}
		case <-time.After(time.Second):
			t.Fatal("no snapshot published")
		}
	}

	if n := s.Watchers(); n != 1 {
		t.Errorf("watchers=%d, want 1", n)
	}
	s.Unwatch(ch)
	if n := s.Watchers(); n != 0 {
		t.Errorf("watchers after Unwatch=%d, want 0", n)
	}
	if _, open := <-ch; open {
		t.Error("channel still open after Unwatch")
	}
}

func TestStatusStore_SlowWatcherDoesNotBlock(t *testing.T) {
	s := NewStatusStore(nil)
	ch := s.Watch(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Apply(statusMsg(telemetry.ProcessStatus{ID: "a"}))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Apply blocked on a full watcher")
	}
	if snap := <-ch; snap.Version != 1 {
		t.Errorf("first buffered version=%d, want 1", snap.Version)
	}
	s.Close()
}

func TestMetricsStore_Apply(t *testing.T) {
	st := stats.New(nil)
	s := NewMetricsStore(reconcile.Window{MaxCount: 2, Retention: time.Minute}, st)

	t0 := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		s.Apply(telemetry.MetricsMessage{ID: "mindreader", Title: "Mindreader", Entries: []telemetry.MetricEntry{
			{Timestamp: t0.Add(time.Duration(i) * time.Second), Value: float64(i), Kind: telemetry.KindDrift},
			{Timestamp: t0, Value: 7, Kind: telemetry.KindUnknown},
		}})
	}

	series, ok := s.Snapshot().Get("mindreader")
	if !ok {
		t.Fatal("series missing")
	}
	if len(series.Drift) != 2 || series.Drift[0].Value != 1 {
		t.Errorf("drift=%+v, want the two newest samples", series.Drift)
	}
	if got := testutil.ToFloat64(st.EntriesDropped.WithLabelValues("metrics")); got != 3 {
		t.Errorf("dropped metric=%v, want 3", got)
	}
}

func TestMetricsSnapshot_CopiesOut(t *testing.T) {
	s := NewMetricsStore(reconcile.DefaultWindow(), nil)
	s.Apply(telemetry.MetricsMessage{ID: "a", Entries: []telemetry.MetricEntry{
		{Timestamp: time.Unix(1, 0), Value: 1, Kind: telemetry.KindDrift},
	}})

	got, _ := s.Snapshot().Get("a")
	got.Drift[0].Value = 42
	list := s.Snapshot().List()
	list[0].Drift[0].Value = 43

	again, _ := s.Snapshot().Get("a")
	if again.Drift[0].Value != 1 {
		t.Fatalf("stored drift=%v, want 1: readers must not reach live state", again.Drift[0].Value)
	}
}

func TestMetricsStore_ConcurrentReaders(t *testing.T) {
	s := NewMetricsStore(reconcile.Window{MaxCount: 10, Retention: time.Hour}, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, m := range s.Snapshot().List() {
					if len(m.Drift) > 10 {
						t.Errorf("len=%d > 10", len(m.Drift))
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		s.Apply(telemetry.MetricsMessage{ID: "a", Entries: []telemetry.MetricEntry{
			{Timestamp: time.Unix(int64(i), 0), Value: 1, Kind: telemetry.KindDrift},
		}})
	}
	close(stop)
	wg.Wait()

	if v := s.Snapshot().Version; v != 200 {
		t.Errorf("version=%d, want 200", v)
	}
}
