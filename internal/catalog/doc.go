// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
Package catalog is the local game catalog: entries, genres and screenshots
persisted in a SQL database.

# Drivers

The store runs on one of three database/sql drivers selected by
config.DatabaseConfig.Driver:

  - duckdb (default): embedded analytical database, file or in-memory
  - sqlite: embedded, single connection
  - postgres: pgx stdlib driver, DSN from configuration

Schema and placeholder differences are isolated in dialect.go; every
query is written once with '?' placeholders and rebound for PostgreSQL.

# Consistency

CreateEntry writes an entry, its genre links and its screenshots in one
transaction. Storage-level constraints back the in-process checks:

  - entries.slug is unique
  - entries.external_id is unique when present
  - genres.slug is unique; genres are get-or-create
  - cashback flag and percent must agree (CHECK constraint)

A losing writer in a race on external_id gets ErrDuplicateExternalID.

# Usage

	store, err := catalog.Open(ctx, &cfg.Database)
	if err != nil {
	    return err
	}
	defer store.Close()

	exists, err := store.ExistsByExternalID(ctx, 1942)
*/
package catalog
