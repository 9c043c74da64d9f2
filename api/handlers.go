/*
handlers.go - HTTP API handlers for the shelf synthesis engine

PURPOSE:
  Exposes synthesis runs via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the pipeline and the run store.

ENDPOINTS:
  Health:
    GET    /api/health                        Liveness probe

  Profiles:
    GET    /api/profiles                      List preset profiles
    GET    /api/profiles/{name}               Full preset profile JSON

  Runs:
    POST   /api/runs                          Execute and store a run
    GET    /api/runs                          List stored runs, newest first
    GET    /api/runs/{id}                     Run record with artifact names
    GET    /api/runs/{id}/artifacts/{name}    Download one CSV artifact

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Run snapshots
  - Runner: Executes runs and persists them into Store
  - ProfileFactory: JSON to Profile conversion
  - Metrics: Prometheus collectors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Data errors, invalid profiles, malformed requests
  - 404: Unknown run, artifact or preset
  - 409: Duplicate run id
  - 500: Internal errors

SECURITY NOTE:
  No authentication. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - pipeline/pipeline.go: Run execution
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/shelf-engine/factory"
	"github.com/warp/shelf-engine/logging"
	"github.com/warp/shelf-engine/pipeline"
	"github.com/warp/shelf-engine/profiles"
	"github.com/warp/shelf-engine/synth"
	"github.com/warp/shelf-engine/tabular"
)

// maxRequestBytes bounds POST /api/runs bodies.
const maxRequestBytes = 16 << 20

// defaultSourceName names uploaded product tables in errors and run records.
const defaultSourceName = "request.csv"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          synth.RunStore
	Runner         *pipeline.Runner
	ProfileFactory *factory.ProfileFactory
	Metrics        *Metrics

	log logging.Logger
}

// NewHandler creates a handler whose runs are persisted into store.
func NewHandler(store synth.RunStore, log logging.Logger, metrics *Metrics) *Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{
		Store:          store,
		Runner:         pipeline.NewRunner(log, store),
		ProfileFactory: factory.NewProfileFactory(),
		Metrics:        metrics,
		log:            log.Named("api"),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns a summary of every preset.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	names := profiles.Names()
	dtos := make([]ProfileSummaryDTO, 0, len(names))
	for _, name := range names {
		p, err := h.preset(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load preset "+name, err)
			return
		}
		dtos = append(dtos, ProfileSummaryDTO{
			Name:          p.Name,
			MarginRate:    p.Params.MarginRate.String(),
			ImpulsePolicy: string(p.Params.Impulse.Policy),
			MinPolicy:     string(p.Params.Display.MinPolicy),
			NoBrandFees:   len(p.Fees.NoBrandSuppliers) > 0,
			Levels:        p.Fees.Quality.Len(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProfile returns the fully defaulted JSON of a preset.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := h.preset(name)
	if err != nil {
		writeServiceError(w, "Profile not available", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ProfileFactory.ToJSON(p))
}

func (h *Handler) preset(name string) (*synth.Profile, error) {
	doc, err := profiles.Lookup(name)
	if err != nil {
		return nil, err
	}
	return h.ProfileFactory.ParseProfile(doc)
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// CreateRun executes a run and stores its snapshot.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "Invalid request body", err)
		return
	}

	profile, label, err := h.resolveProfile(req)
	if err != nil {
		writeServiceError(w, "Invalid profile", err)
		return
	}

	in, err := h.resolveProducts(req)
	if err != nil {
		writeServiceError(w, "Invalid product table", err)
		return
	}
	in.Profile = profile
	if req.Seed != nil {
		in.Seed = *req.Seed
	} else {
		in.Seed = rand.Uint64()
	}

	start := time.Now()
	res, err := h.Runner.Run(r.Context(), in)
	if err != nil {
		h.Metrics.ObserveRun(label, time.Since(start), nil, err)
		writeServiceError(w, "Run failed", err)
		return
	}
	h.Metrics.ObserveRun(label, time.Since(start), &res.Run, nil)

	dto := toRunDTO(res.Run)
	for _, a := range res.Artifacts {
		dto.Artifacts = append(dto.Artifacts, a.Name)
	}
	dto.Profile = json.RawMessage(res.Run.ProfileJSON)
	writeJSON(w, http.StatusCreated, dto)
}

// resolveProfile returns the run profile and its metrics label: the preset
// name, or InlineProfile for a profile sent in the request.
func (h *Handler) resolveProfile(req CreateRunRequest) (*synth.Profile, string, error) {
	if len(req.ProfileJSON) > 0 {
		p, err := h.ProfileFactory.ParseProfile(req.ProfileJSON)
		return p, InlineProfile, err
	}
	name := req.Profile
	if name == "" {
		name = profiles.DefaultPreset
	}
	p, err := h.preset(name)
	return p, name, err
}

func (h *Handler) resolveProducts(req CreateRunRequest) (pipeline.Input, error) {
	hasCSV := strings.TrimSpace(req.ProductsCSV) != ""
	switch {
	case req.UseDemo && hasCSV:
		return pipeline.Input{}, fmt.Errorf("use_demo and products_csv are exclusive: %w", synth.ErrInvalidConfig)
	case !req.UseDemo && !hasCSV:
		return pipeline.Input{}, fmt.Errorf("products_csv is required unless use_demo is set: %w", synth.ErrInvalidConfig)
	}

	data, name := []byte(req.ProductsCSV), req.SourceName
	if req.UseDemo {
		data, name = profiles.DemoProducts(), profiles.DemoProductsName
	}
	if name == "" {
		name = defaultSourceName
	}

	table, err := tabular.DecodeProducts(bytes.NewReader(data), name)
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.Input{
		Products:    table.Products,
		HasSupplier: table.HasSupplier,
		SourceName:  name,
	}, nil
}

// ListRuns returns every stored run, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a run record with its profile and artifact names.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := synth.RunID(chi.URLParam(r, "id"))

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeServiceError(w, "Run not found", err)
		return
	}
	names, err := h.Store.ListArtifacts(r.Context(), id)
	if err != nil {
		writeServiceError(w, "Failed to list artifacts", err)
		return
	}

	dto := toRunDTO(*run)
	dto.Artifacts = names
	dto.Profile = json.RawMessage(run.ProfileJSON)
	writeJSON(w, http.StatusOK, dto)
}

// GetArtifact streams one CSV artifact of a run.
func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	id := synth.RunID(chi.URLParam(r, "id"))
	name := chi.URLParam(r, "name")

	a, err := h.Store.GetArtifact(r.Context(), id, name)
	if err != nil {
		writeServiceError(w, "Artifact not found", err)
		return
	}
	h.Metrics.ObserveDownload(a.Name)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.Content); err != nil {
		h.log.Warn("artifact write failed",
			logging.String("run_id", string(id)),
			logging.String("artifact", name),
			logging.Err(err))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps engine and store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case synth.IsNotFound(err), errors.Is(err, profiles.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, synth.ErrDuplicateRun):
		return http.StatusConflict
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case synth.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
