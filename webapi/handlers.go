// Package webapi exposes the generation pipeline over HTTP.
//
// handlers.go implements the REST endpoints: the three generate endpoints,
// the health check, and the stats endpoint.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studio_backend/db"
	"studio_backend/logging"
	"studio_backend/metrics"
	"studio_backend/objectgen"
)

// DefaultMaxBodyBytes bounds the request body; reference images are inlined
// as base64, so the limit has to accommodate them.
const DefaultMaxBodyBytes = 20 << 20

// Generation endpoint kinds, persisted with each history record.
const (
	EndpointObject = "object"
	EndpointImage  = "image"
	EndpointVideo  = "video"
)

// API wires the generation pipelines to their HTTP endpoints.
type API struct {
	object *objectgen.Generator
	image  *objectgen.Generator
	video  *objectgen.Generator

	repo      *db.Repository
	collector *metrics.Collector
	logger    *logging.Logger
	healthFn  func() error

	maxBodyBytes int64
}

// APIConfig holds the dependencies of the HTTP API. Generators for kinds the
// deployment does not serve may be nil; their endpoints then answer 503.
type APIConfig struct {
	ObjectGenerator *objectgen.Generator
	ImageGenerator  *objectgen.Generator
	VideoGenerator  *objectgen.Generator

	// Repository receives one history record per request (optional).
	Repository *db.Repository

	// Collector counts requests for the stats endpoint (optional).
	Collector *metrics.Collector

	// HealthCheck is probed by the health endpoint (optional; typically the
	// database ping).
	HealthCheck func() error

	// MaxBodyBytes bounds request bodies (default DefaultMaxBodyBytes).
	MaxBodyBytes int64

	Logger *logging.Logger
}

// NewAPI creates the API from its dependencies.
func NewAPI(config APIConfig) *API {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &API{
		object:       config.ObjectGenerator,
		image:        config.ImageGenerator,
		video:        config.VideoGenerator,
		repo:         config.Repository,
		collector:    config.Collector,
		logger:       logger,
		healthFn:     config.HealthCheck,
		maxBodyBytes: maxBody,
	}
}

// RegisterRoutes attaches all endpoints to the mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate/object", a.handleGenerate(EndpointObject, a.object))
	mux.HandleFunc("POST /api/generate/image", a.handleGenerate(EndpointImage, a.image))
	mux.HandleFunc("POST /api/generate/video", a.handleGenerate(EndpointVideo, a.video))
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/stats", a.handleStats)
}

// handleGenerate builds the handler for one generation kind.
func (a *API) handleGenerate(kind string, generator *objectgen.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if generator == nil {
			writeError(w, http.StatusServiceUnavailable, "this generation endpoint is not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)

		var raw objectgen.RawGenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "request body is not valid JSON")
			return
		}

		if a.collector != nil {
			a.collector.RecordRequest()
		}
		started := time.Now()

		// Minted here so failed runs persist the same id the pipeline logs.
		correlationID := uuid.NewString()[:8]

		result, err := generator.GenerateWithID(r.Context(), correlationID, raw)
		if err != nil {
			a.recordFailure(kind, correlationID, raw, err, time.Since(started))

			if objectgen.IsInvalidInput(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			var allFailed *objectgen.AllFailedError
			if errors.As(err, &allFailed) {
				writeError(w, http.StatusInternalServerError, allFailed.Error(), allFailed.Details...)
				return
			}
			writeError(w, http.StatusInternalServerError, "generation failed")
			return
		}

		a.recordResult(kind, raw, result, time.Since(started))
		writeJSON(w, http.StatusOK, result)
	}
}

// handleHealth reports service liveness and the backing store's health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if a.healthFn != nil {
		if err := a.healthFn(); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}

	writeJSON(w, code, status)
}

// handleStats combines live provider counters with the persisted history
// aggregates.
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{}

	if a.collector != nil {
		payload["live"] = a.collector.Snapshot()
	}
	if a.repo != nil {
		history, err := a.repo.Stats(r.Context())
		if err != nil {
			a.logger.Error("failed to load history stats", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		payload["history"] = history
	}

	writeJSON(w, http.StatusOK, payload)
}

// recordResult persists the history record for a successful run. A failed
// write is logged and swallowed; history must never fail a request.
func (a *API) recordResult(kind string, raw objectgen.RawGenerationRequest, result *objectgen.GenerationResult, elapsed time.Duration) {
	if a.repo == nil {
		return
	}

	status := db.StatusSuccess
	if len(result.Downloads) == 0 {
		status = db.StatusDegraded
	}
	if kind != EndpointObject {
		// The image and video endpoints never promise downloads.
		status = db.StatusSuccess
	}

	record := db.GenerationRecord{
		CorrelationID:  result.CorrelationID,
		Endpoint:       kind,
		Prompt:         raw.Prompt,
		Provider:       result.Provider,
		ProvidersTried: result.ProvidersTried,
		RenderCount:    len(result.Renders),
		DownloadCount:  len(result.Downloads),
		Status:         status,
		DurationMS:     int(elapsed.Milliseconds()),
	}
	if _, err := a.repo.InsertGeneration(context.Background(), record); err != nil {
		a.logger.Warn("failed to persist generation record", zap.Error(err))
	}
}

// recordFailure persists the history record for a failed run under the
// correlation id the pipeline ran with.
func (a *API) recordFailure(kind, correlationID string, raw objectgen.RawGenerationRequest, genErr error, elapsed time.Duration) {
	if a.repo == nil || objectgen.IsInvalidInput(genErr) {
		return
	}

	record := db.GenerationRecord{
		CorrelationID: correlationID,
		Endpoint:      kind,
		Prompt:        raw.Prompt,
		Status:        db.StatusError,
		ErrorMessage:  genErr.Error(),
		DurationMS:    int(elapsed.Milliseconds()),
	}
	var allFailed *objectgen.AllFailedError
	if errors.As(genErr, &allFailed) && len(allFailed.Details) > 0 {
		record.ErrorMessage = allFailed.Details[0]
	}
	if _, err := a.repo.InsertGeneration(context.Background(), record); err != nil {
		a.logger.Warn("failed to persist generation record", zap.Error(err))
	}
}
