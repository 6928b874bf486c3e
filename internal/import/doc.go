// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package catalogimport pages through IGDB import candidates and stores each
// one as a local catalog entry.
//
// # Architecture
//
//	igdb.Client (rate limit, token, query)
//	       ↓ one page per batch
//	Importer (this package)
//	       ↓ per record
//	Mapper → catalog.Store.CreateEntry (one transaction)
//	       ↓
//	events publisher (best effort)
//
// # State Machine
//
// A run moves Idle → Authenticating → Fetching → Processing → ... → Completed.
// There is no aborted state for upstream trouble: the batch loop runs at most
// ceil(count/batch_size) times and each page at most batch_size records, so a
// run always completes. Only credential failures (and an authentication
// failure before the first successful page) end a run early with an error.
//
// # Failure Isolation
//
//   - A failed page fetch skips the batch and advances the offset by the batch size.
//   - A failed record (mapping or persistence) is counted and the loop moves on.
//   - A record already stored under its external id is counted as a duplicate.
//
// # Synthesized Fields
//
// IGDB has no commercial data, so the Mapper draws price, discount, platform,
// region and cashback from fixed weighted tables using an injectable random
// source. The draw order is stable so tests can script it.
//
// # Progress Tracking
//
// After every batch the next offset is saved (BadgerDB in production) so a
// later run can resume where the previous one stopped.
package catalogimport
