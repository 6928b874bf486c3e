// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package logging provides the zerolog-based structured logger used across catalogsync.
//
// A single global logger is configured once from main and read through the
// level helpers. Import runs attach a correlation id to their context so every
// batch and record log line of one run can be grouped:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Int("batch", n).Msg("Fetching batch")
//
// # Configuration
//
// Environment Variables (read by internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # slog bridge
//
// Libraries that only speak log/slog (sutureslog for the supervisor tree)
// receive NewSlogLogger(), which forwards records to the global zerolog logger.
package logging
