package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	stockRejections  prometheus.Counter
	reportsGenerated *prometheus.CounterVec
	orderRecomputes  prometheus.Counter
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trattoria_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trattoria_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trattoria_stock_rejections_total",
		Help: "Stock transactions rejected for insufficient stock.",
	})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trattoria_reports_generated_total",
		Help: "Report rollups generated by kind.",
	}, []string{"kind"})
	recomputes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trattoria_order_recomputes_total",
		Help: "Order total recomputations after line item changes.",
	})
	registry.MustRegister(requests, duration, rejections, reports, recomputes)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		stockRejections:  rejections,
		reportsGenerated: reports,
		orderRecomputes:  recomputes,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
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

// RecordStockRejection counts an OUT transaction refused by the ledger.
func (m *Metrics) RecordStockRejection() {
	if m == nil {
		return
	}
	m.stockRejections.Inc()
}

// RecordReport counts a generated rollup of the given kind (daily, monthly, hourly).
func (m *Metrics) RecordReport(kind string) {
	if m == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(kind).Inc()
}

// RecordOrderRecompute counts an order total recomputation.
func (m *Metrics) RecordOrderRecompute() {
	if m == nil {
		return
	}
	m.orderRecomputes.Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
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
