// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
Package api is the serve-mode HTTP surface, built on chi.

Routes:

	GET  /healthz               store ping and upstream breaker state
	GET  /metrics               Prometheus exposition
	GET  /api/v1/import/status  current or last run (ProgressSummary)
	POST /api/v1/import/run     queue a run; optional JSON body overrides defaults

Every response body except /metrics uses the APIResponse envelope. Import
triggers are rate limited per client IP with go-chi/httprate. A trigger
while a run is active or already queued returns 409.
*/
package api
