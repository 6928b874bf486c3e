// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig configures the router.
type RouterConfig struct {
	// TriggerRequests per TriggerWindow per client IP. 0 disables the limit.
	TriggerRequests int
	TriggerWindow   time.Duration
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		TriggerRequests: 5,
		TriggerWindow:   time.Minute,
	}
}

// NewRouter builds the chi router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestContext)
	r.Use(instrument)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/import", func(r chi.Router) {
		r.Get("/status", h.ImportStatus)
		r.With(rateLimitTrigger(cfg.TriggerRequests, cfg.TriggerWindow)).Post("/run", h.TriggerImport)
	})

	return r
}
