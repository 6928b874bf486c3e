// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
Package services adapts serve-mode components to suture.Service.

  - ImportService runs imports on a fixed interval, optionally once at
    startup, and on demand through Trigger (used by the HTTP API).
  - HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into
    a context-aware Serve with a bounded graceful shutdown.

Both return ctx.Err() on shutdown so the supervisor treats it as a clean stop.
*/
package services
