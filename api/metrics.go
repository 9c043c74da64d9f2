package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/shelf-engine/synth"
)

const metricsNamespace = "shelfsynth"

// Metrics holds the server's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec
	downloads   *prometheus.CounterVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Synthesis runs by profile and outcome.",
		}, []string{"profile", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of successful synthesis runs.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"profile"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "run_diagnostics_total",
			Help:      "Recovered conditions reported by runs, by kind.",
		}, []string{"kind"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "artifact_downloads_total",
			Help:      "Artifact downloads by file name.",
		}, []string{"artifact"}),
	}

	m.registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
		m.requests, m.latency, m.runs, m.runDuration, m.diagnostics, m.downloads,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// InlineProfile is the run label of profiles sent in a request body. Only
// preset names and InlineProfile are used as labels.
const InlineProfile = "inline"

// ObserveRun records a run outcome. profile is a preset name or InlineProfile.
func (m *Metrics) ObserveRun(profile string, elapsed time.Duration, run *synth.Run, err error) {
	if err != nil {
		m.runs.WithLabelValues(profile, "error").Inc()
		return
	}
	m.runs.WithLabelValues(profile, "ok").Inc()
	m.runDuration.WithLabelValues(profile).Observe(elapsed.Seconds())
	m.diagnostics.WithLabelValues("config_inconsistency").Add(float64(run.ConfigInconsistencies))
	m.diagnostics.WithLabelValues("capacity_violation").Add(float64(run.CapacityViolations))
	m.diagnostics.WithLabelValues("zeroed_fee_row").Add(float64(run.ZeroedFeeRows))
}

// ObserveDownload records an artifact download.
func (m *Metrics) ObserveDownload(artifact string) {
	m.downloads.WithLabelValues(artifact).Inc()
}
