package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/monitor"
	"github.com/selemilka/hivewatch/internal/stream"
	"github.com/selemilka/hivewatch/internal/telemetry"
)

var errNotTracked = errors.New("process not tracked")

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status        string                     `json:"status"`
	Uptime        string                     `json:"uptime"`
	Subscriptions []stream.SubscriptionState `json:"subscriptions"`
}

// StatusResponse wraps a status snapshot.
type StatusResponse struct {
	Version   uint64                    `json:"version"`
	Processes []telemetry.ProcessStatus `json:"processes"`
}

// MetricsResponse wraps a metrics snapshot.
type MetricsResponse struct {
	Version uint64                   `json:"version"`
	Series  []telemetry.MetricSeries `json:"series"`
}

type handler struct {
	src     Source
	started time.Time
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hwlog.For("http").Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error, message string) {
	writeJSON(w, code, ErrorResponse{Error: err.Error(), Message: message})
}

// health reports "degraded" while any subscription is not streaming.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	subs := h.src.Subscriptions()
	state := "healthy"
	for _, s := range subs {
		if !s.Connected {
			state = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        state,
		Uptime:        time.Since(h.started).Truncate(time.Second).String(),
		Subscriptions: subs,
	})
}

func (h *handler) listStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.src.Statuses()
	procs := snap.List()
	if procs == nil {
		procs = []telemetry.ProcessStatus{}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Version: snap.Version, Processes: procs})
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := h.src.Statuses().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotTracked, "No status for process: "+id)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) listMetrics(w http.ResponseWriter, r *http.Request) {
	snap := h.src.Metrics()
	series := snap.List()
	if series == nil {
		series = []telemetry.MetricSeries{}
	}
	writeJSON(w, http.StatusOK, MetricsResponse{Version: snap.Version, Series: series})
}

func (h *handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, ok := h.src.Metrics().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotTracked, "No metrics for process: "+id)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) subscriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.src.Subscriptions())
}

func (h *handler) startApp(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.src.StartApp(r.Context(), id); err != nil {
		h.controlError(w, err, "start", id)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Status: "started", Message: "App " + id + " started"})
}

func (h *handler) stopApp(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.src.StopApp(r.Context(), id); err != nil {
		h.controlError(w, err, "stop", id)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Status: "stopped", Message: "App " + id + " stopped"})
}

func (h *handler) controlError(w http.ResponseWriter, err error, verb, id string) {
	switch {
	case errors.Is(err, monitor.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, err, "Backend cannot "+verb+" apps")
	case status.Code(err) == codes.NotFound:
		writeError(w, http.StatusNotFound, err, "App not found: "+id)
	default:
		writeError(w, http.StatusBadGateway, err, fmt.Sprintf("Failed to %s app %s", verb, id))
	}
}
