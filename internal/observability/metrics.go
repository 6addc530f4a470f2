// Package observability exposes Prometheus metrics for the fulfillment engine.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	scansAccepted   prometheus.Counter
	scansRejected   *prometheus.CounterVec
	reconciles      *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	scansAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_scans_accepted_total",
		Help: "Scan confirmations applied.",
	})
	scansRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_scans_rejected_total",
		Help: "Scan rejections by error code.",
	}, []string{"code"})
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_batch_reconciliations_total",
		Help: "Batch reconciliations by resulting order status.",
	}, []string{"status"})
	registry.MustRegister(requests, duration, scansAccepted, scansRejected, reconciles)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		scansAccepted:   scansAccepted,
		scansRejected:   scansRejected,
		reconciles:      reconciles,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ScanAccepted counts one applied scan.
func (m *Metrics) ScanAccepted() {
	if m != nil {
		m.scansAccepted.Inc()
	}
}

// ScanRejected counts one rejected scan by its stable error code.
func (m *Metrics) ScanRejected(code string) {
	if m != nil {
		m.scansRejected.WithLabelValues(code).Inc()
	}
}

// ReconcileCompleted counts one batch reconciliation by resulting status.
func (m *Metrics) ReconcileCompleted(status string) {
	if m != nil {
		m.reconciles.WithLabelValues(status).Inc()
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
