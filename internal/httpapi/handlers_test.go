package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/selemilka/hivewatch/internal/monitor"
	"github.com/selemilka/hivewatch/internal/reconcile"
	"github.com/selemilka/hivewatch/internal/stats"
	"github.com/selemilka/hivewatch/internal/store"
	"github.com/selemilka/hivewatch/internal/stream"
	"github.com/selemilka/hivewatch/internal/telemetry"
)

type fakeSource struct {
	status  *store.StatusStore
	metrics *store.MetricsStore
	subs    []stream.SubscriptionState
	ctlErr  error
	calls   []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		status:  store.NewStatusStore(nil),
		metrics: store.NewMetricsStore(reconcile.DefaultWindow(), nil),
	}
}

func (f *fakeSource) Statuses() store.StatusSnapshot { return f.status.Snapshot() }
func (f *fakeSource) Metrics() store.MetricsSnapshot { return f.metrics.Snapshot() }
func (f *fakeSource) Subscriptions() []stream.SubscriptionState { return f.subs }

func (f *fakeSource) StartApp(_ context.Context, id string) error {
	f.calls = append(f.calls, "start "+id)
	return f.ctlErr
}

func (f *fakeSource) StopApp(_ context.Context, id string) error {
	f.calls = append(f.calls, "stop "+id)
	return f.ctlErr
}

func serve(t *testing.T, r *Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatusRoutes(t *testing.T) {
	src := newFakeSource()
	src.status.Apply(telemetry.StatusMessage{Processes: []telemetry.ProcessStatus{
		{ID: "nodeos", Description: "producer", Status: telemetry.StatusRunning},
		{ID: "abicodec", Status: telemetry.StatusWarning},
	}})
	r := NewRouter(src, nil)

	rec := serve(t, r, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d, want 200", rec.Code)
	}
	list := decode[StatusResponse](t, rec)
	if list.Version != 1 || len(list.Processes) != 2 || list.Processes[0].ID != "abicodec" {
		t.Errorf("list=%+v", list)
	}

	rec = serve(t, r, http.MethodGet, "/api/status/nodeos")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"running"`) {
		t.Errorf("body=%s, want status rendered by name", rec.Body.String())
	}

	rec = serve(t, r, http.MethodGet, "/api/status/ghost")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: code=%d, want 404", rec.Code)
	}
}

func TestMetricsRoutes(t *testing.T) {
	src := newFakeSource()
	t0 := time.Unix(1_600_000_000, 0).UTC()
	src.metrics.Apply(telemetry.MetricsMessage{ID: "nodeos", Title: "Nodeos", Entries: []telemetry.MetricEntry{
		{Timestamp: t0, Value: 0.25, Kind: telemetry.KindDrift},
		{Timestamp: t0, Value: 99, Kind: telemetry.KindHeadBlockNumber},
	}})
	r := NewRouter(src, nil)

	list := decode[MetricsResponse](t, serve(t, r, http.MethodGet, "/api/metrics"))
	if len(list.Series) != 1 || list.Series[0].HeadBlockNumber != 99 {
		t.Errorf("list=%+v", list)
	}

	series := decode[telemetry.MetricSeries](t, serve(t, r, http.MethodGet, "/api/metrics/nodeos"))
	if series.Title != "Nodeos" || len(series.Drift) != 1 || !series.Drift[0].Timestamp.Equal(t0) {
		t.Errorf("series=%+v", series)
	}

	if rec := serve(t, r, http.MethodGet, "/api/metrics/ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: code=%d, want 404", rec.Code)
	}
}

func TestEmptyListsAreArrays(t *testing.T) {
	r := NewRouter(newFakeSource(), nil)
	for _, path := range []string{"/api/status", "/api/metrics"} {
		body := serve(t, r, http.MethodGet, path).Body.String()
		if strings.Contains(body, "null") {
			t.Errorf("%s body=%s, want empty array", path, body)
		}
	}
}

func TestHealth(t *testing.T) {
	src := newFakeSource()
	src.subs = []stream.SubscriptionState{
		{Name: "status", State: stream.StateStreaming, Connected: true},
		{Name: "metrics", State: stream.StateConnecting},
	}
	r := NewRouter(src, nil)

	got := decode[HealthResponse](t, serve(t, r, http.MethodGet, "/health"))
	if got.Status != "degraded" || len(got.Subscriptions) != 2 {
		t.Errorf("health=%+v, want degraded with 2 subscriptions", got)
	}

	src.subs[1].Connected = true
	got = decode[HealthResponse](t, serve(t, r, http.MethodGet, "/health"))
	if got.Status != "healthy" {
		t.Errorf("status=%q, want healthy", got.Status)
	}

	body := serve(t, r, http.MethodGet, "/api/subscriptions").Body.String()
	if !strings.Contains(body, `"state":"streaming"`) {
		t.Errorf("subscriptions body=%s", body)
	}
}

func TestAppControl(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"unsupported", monitor.ErrUnsupported, http.StatusNotImplemented},
		{"not found", status.Error(codes.NotFound, "no such app"), http.StatusNotFound},
		{"backend down", errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.ctlErr = tt.err
			r := NewRouter(src, nil)

			if rec := serve(t, r, http.MethodPost, "/api/apps/nodeos/start"); rec.Code != tt.code {
				t.Errorf("start code=%d, want %d", rec.Code, tt.code)
			}
			if rec := serve(t, r, http.MethodPost, "/api/apps/nodeos/stop"); rec.Code != tt.code {
				t.Errorf("stop code=%d, want %d", rec.Code, tt.code)
			}
			if len(src.calls) != 2 || src.calls[0] != "start nodeos" || src.calls[1] != "stop nodeos" {
				t.Errorf("calls=%v", src.calls)
			}
		})
	}
}

func TestAppControl_MethodNotAllowed(t *testing.T) {
	r := NewRouter(newFakeSource(), nil)
	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/apps/nodeos/start"},
		{http.MethodGet, "/api/apps/nodeos/stop"},
		{http.MethodPost, "/api/status"},
		{http.MethodDelete, "/api/metrics/nodeos"},
	}
	for _, tt := range tests {
		if rec := serve(t, r, tt.method, tt.path); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: code=%d, want 405", tt.method, tt.path, rec.Code)
		}
	}
	if rec := serve(t, r, http.MethodGet, "/api/nothing"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: code=%d, want 404", rec.Code)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := stats.New(reg)
	st.StreamEnded("status")

	r := NewRouter(newFakeSource(), reg)
	rec := serve(t, r, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hivewatch_stream_ends_total{stream="status"} 1`) {
		t.Errorf("body missing stream end counter:\n%s", rec.Body.String())
	}

	if rec := serve(t, NewRouter(newFakeSource(), nil), http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("without gatherer: code=%d, want 404", rec.Code)
	}
}
