// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package metrics defines the Prometheus instrumentation for catalogsync.
//
// All collectors are registered on the default registry through promauto and
// exposed by the serve-mode HTTP server at /metrics. Callers use the Record*
// helpers rather than touching collectors directly:
//
//	metrics.RecordUpstreamRequest("games", 200, time.Since(start))
//	metrics.RecordImportRecord(metrics.OutcomeImported)
//
// # Metric families
//
//   - igdb_*: upstream requests, rate-limiter waits, token refreshes
//   - circuit_breaker_*: gobreaker state and transitions
//   - catalog_db_*: catalog store query latency and errors
//   - import_*: record and batch outcomes, run duration, last success
//   - api_*: serve-mode HTTP requests
package metrics
