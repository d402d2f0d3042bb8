// Package httpapi serves the reconciled state as JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/store"
	"github.com/selemilka/hivewatch/internal/stream"
)

// Source is the read and control surface the API exposes.
type Source interface {
	Statuses() store.StatusSnapshot
	Metrics() store.MetricsSnapshot
	Subscriptions() []stream.SubscriptionState
	StartApp(ctx context.Context, id string) error
	StopApp(ctx context.Context, id string) error
}

type Router struct {
	*mux.Router
}

// NewRouter builds the route table. A nil gatherer disables /metrics.
func NewRouter(src Source, gatherer prometheus.Gatherer) *Router {
	r := mux.NewRouter()
	h := &handler{src: src, started: time.Now()}

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// API routes live on the root router so a method mismatch is a 405.
	r.HandleFunc("/api/status", h.listStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/status/{id}", h.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", h.listMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics/{id}", h.getMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/subscriptions", h.subscriptions).Methods(http.MethodGet)
	r.HandleFunc("/api/apps/{id}/start", h.startApp).Methods(http.MethodPost)
	r.HandleFunc("/api/apps/{id}/stop", h.stopApp).Methods(http.MethodPost)

	r.Use(recovery, logging)
	return &Router{Router: r}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func logging(next http.Handler) http.Handler {
	log := hwlog.For("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.code, "duration", time.Since(start))
	})
}

func recovery(next http.Handler) http.Handler {
	log := hwlog.For("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Error("handler panic", "path", r.URL.Path, "panic", v)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
