// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package config loads catalogsync configuration with Koanf v2.
//
// Sources are layered with increasing priority:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/catalogsync/config.yaml
//  3. Environment variables, mapped explicitly by envTransformFunc
//
// Only mapped environment variables are read, so unrelated variables in the
// process environment never leak into the configuration.
//
// # Example config.yaml
//
//	igdb:
//	  client_id: abc123
//	  client_secret: s3cret
//	  rate_limit: 4
//	database:
//	  driver: duckdb
//	  path: /data/catalog.duckdb
//	import:
//	  count: 500
//	  min_rating: 70
//
// Client credentials are deliberately not required here: the token manager
// reports missing credentials as a credential error when a run starts, which
// keeps `catalogsync serve` able to expose health and metrics endpoints while
// credentials are being provisioned.
package config
