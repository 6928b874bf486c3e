// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	catalogimport "github.com/tomtom215/catalogsync/internal/import"
	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/supervisor/services"
	"github.com/tomtom215/catalogsync/internal/validation"
)

// maxRunBody bounds the trigger request body.
const maxRunBody = 4 << 10

// ImportStatusProvider reports the importer's state.
type ImportStatusProvider interface {
	Summary() *catalogimport.ProgressSummary
	IsRunning() bool
}

// ImportTrigger queues import runs.
type ImportTrigger interface {
	Trigger(params catalogimport.RunParams) error
	Defaults() catalogimport.RunParams
}

// HealthChecker verifies a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// BreakerStater exposes the upstream circuit breaker state.
type BreakerStater interface {
	State() string
}

// Handler serves the HTTP routes.
type Handler struct {
	status  ImportStatusProvider
	trigger ImportTrigger
	store   HealthChecker
	breaker BreakerStater
}

// NewHandler creates a handler. breaker may be nil.
func NewHandler(status ImportStatusProvider, trigger ImportTrigger, store HealthChecker, breaker BreakerStater) *Handler {
	return &Handler{status: status, trigger: trigger, store: store, breaker: breaker}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	Upstream      string `json:"upstream,omitempty"`
	ImportRunning bool   `json:"import_running"`
}

// Health pings the store. An open upstream breaker is reported but does not fail the check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Store: "ok", ImportRunning: h.status.IsRunning()}
	if h.breaker != nil {
		resp.Upstream = h.breaker.State()
	}
	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: store unreachable")
		resp.Status = "degraded"
		resp.Store = "unreachable"
		rw.ServiceUnavailable("catalog store unreachable", resp)
		return
	}
	rw.Success(resp)
}

// ImportStatus returns the current or last run summary.
func (h *Handler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.status.Summary())
}

// RunRequest overrides the configured defaults. Absent fields keep the default.
type RunRequest struct {
	Count     *int     `json:"count,omitempty"`
	Offset    *int     `json:"offset,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	BatchSize *int     `json:"batch_size,omitempty"`
	Resume    *bool    `json:"resume,omitempty"`
}

// Apply returns defaults with the request's fields applied.
func (req RunRequest) Apply(defaults catalogimport.RunParams) catalogimport.RunParams {
	p := defaults
	if req.Count != nil {
		p.Count = *req.Count
	}
	if req.Offset != nil {
		p.Offset = *req.Offset
	}
	if req.MinRating != nil {
		p.MinRating = *req.MinRating
	}
	if req.BatchSize != nil {
		p.BatchSize = *req.BatchSize
	}
	if req.Resume != nil {
		p.Resume = *req.Resume
	}
	return p
}

// RunAccepted is the body of a successful trigger.
type RunAccepted struct {
	Params catalogimport.RunParams `json:"params"`
}

// TriggerImport queues a run. The body is optional.
func (h *Handler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RunRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRunBody))
	if err != nil {
		rw.BadRequest("failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			rw.BadRequest("invalid JSON body")
			return
		}
	}

	params := req.Apply(h.trigger.Defaults())
	if err := h.trigger.Trigger(params); err != nil {
		var verr *validation.RequestValidationError
		switch {
		case errors.As(err, &verr):
			apiErr := verr.ToAPIError()
			rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		case errors.Is(err, catalogimport.ErrImportRunning):
			rw.Conflict("an import run is in progress", h.status.Summary())
		case errors.Is(err, services.ErrTriggerPending):
			rw.Conflict("an import run is already queued", h.status.Summary())
		default:
			rw.InternalError(err)
		}
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("count", params.Count).
		Int("offset", params.Offset).
		Float64("min_rating", params.MinRating).
		Int("batch_size", params.BatchSize).
		Bool("resume", params.Resume).
		Msg("Import run queued")
	rw.Accepted(RunAccepted{Params: params})
}
