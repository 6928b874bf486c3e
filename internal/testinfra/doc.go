// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package testinfra starts throwaway service containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # PostgreSQL
//
// NewPostgresContainer starts postgres and exposes a DSN the catalog store
// accepts directly:
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//
//	store, err := catalog.Open(ctx, &config.DatabaseConfig{
//	    Driver: config.DriverPostgres,
//	    DSN:    pg.DSN,
//	})
//
// # Redis
//
// NewRedisContainer starts redis for the shared token cache. Addr is a
// host:port pair for go-redis.
//
// Tests are skipped when Docker is unavailable. The first run pulls images.
package testinfra
