/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (zap via logging.Logger)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Request counts and latency per route
  5. CORS:       Cross-origin requests from configured origins

ROUTE GROUPS:
  /api/health           Liveness
  /api/profiles/*       Preset profiles
  /api/runs/*           Runs and their artifacts
  /metrics              Prometheus scrape endpoint
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/shelf-engine/logging"
)

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins list allows every origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Profile routes
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.ListProfiles)
			r.Get("/{name}", h.GetProfile)
		})

		// Run routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Post("/", h.CreateRun)
			r.Get("/{id}", h.GetRun)
			r.Get("/{id}/artifacts/{name}", h.GetArtifact)
		})
	})

	r.Handle("/metrics", h.Metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Shelf Synthesis Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Shelf Synthesis Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/profiles">/api/profiles</a> - List preset profiles</li>
<li><a href="/api/runs">/api/runs</a> - List stored runs (POST to create one)</li>
<li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
</ul>
</body>
</html>`))
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("http request",
				logging.String("request_id", middleware.GetReqID(r.Context())),
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Int("bytes", ww.BytesWritten()),
				logging.Duration("elapsed", time.Since(start)))
		})
	}
}
