// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
dialect.go - SQL Dialect Differences

The three supported drivers agree on almost everything the store needs
(RETURNING, ON CONFLICT DO NOTHING, CHECK constraints). They differ in:

  - driver name passed to sql.Open
  - identity columns: DuckDB sequences, SQLite INTEGER PRIMARY KEY,
    PostgreSQL BIGSERIAL
  - fixed-point price type names (DECIMAL(10,2) vs NUMERIC(10,2))
  - placeholders: '?' everywhere except PostgreSQL ('$1', '$2', ...)
  - connection pool limits (SQLite in-memory databases are per connection)
*/

//nolint:staticcheck // File documentation, not package doc
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/catalogsync/internal/config"
)

type dialect struct {
	name       string
	driverName string
	numbered   bool // $n placeholders
	maxConns   int  // 0 leaves the pool default
	schema     []string
}

func dialectFor(driver string) (*dialect, error) {
	switch driver {
	case config.DriverDuckDB, "":
		return duckDBDialect, nil
	case config.DriverSQLite:
		return sqliteDialect, nil
	case config.DriverPostgres:
		return postgresDialect, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported driver %q", driver)
	}
}

// rebind rewrites '?' placeholders for dialects that number them.
// Queries in this package never contain literal question marks.
func (d *dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// entryColumnsDDL is shared by every dialect; %s slots take the id column
// and the fixed-point price type.
const entryColumnsDDL = `CREATE TABLE IF NOT EXISTS entries (
	%s,
	external_id BIGINT UNIQUE,
	slug VARCHAR(255) NOT NULL UNIQUE,
	title VARCHAR(255) NOT NULL,
	image VARCHAR(500) NOT NULL DEFAULT '',
	price %s NOT NULL,
	original_price %s NOT NULL,
	discount INTEGER NOT NULL DEFAULT 0,
	platform VARCHAR(50) NOT NULL,
	region VARCHAR(20) NOT NULL DEFAULT 'GLOBAL',
	product_type VARCHAR(50) NOT NULL DEFAULT 'Game',
	has_cashback BOOLEAN NOT NULL DEFAULT FALSE,
	cashback_percent INTEGER NOT NULL DEFAULT 0,
	release_date DATE,
	developer VARCHAR(255),
	publisher VARCHAR(255),
	description TEXT,
	popularity_score INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	CHECK ((has_cashback AND cashback_percent > 0) OR (NOT has_cashback AND cashback_percent = 0)),
	CHECK (discount >= 0 AND discount < 100)
)`

const genresDDL = `CREATE TABLE IF NOT EXISTS genres (
	%s,
	name VARCHAR(255) NOT NULL,
	slug VARCHAR(255) NOT NULL UNIQUE
)`

const entryGenresDDL = `CREATE TABLE IF NOT EXISTS entry_genres (
	entry_id BIGINT NOT NULL REFERENCES entries(id),
	genre_id BIGINT NOT NULL REFERENCES genres(id),
	position INTEGER NOT NULL,
	PRIMARY KEY (entry_id, genre_id)
)`

const entryScreenshotsDDL = `CREATE TABLE IF NOT EXISTS entry_screenshots (
	entry_id BIGINT NOT NULL REFERENCES entries(id),
	position INTEGER NOT NULL,
	url VARCHAR(500) NOT NULL,
	PRIMARY KEY (entry_id, position)
)`

var commonIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_entries_platform ON entries(platform)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_product_type ON entries(product_type)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_popularity ON entries(popularity_score)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_release_date ON entries(release_date)`,
}

func schemaFor(idColumn, decimalType string, sequences ...string) []string {
	stmts := append([]string{}, sequences...)
	stmts = append(stmts,
		fmt.Sprintf(entryColumnsDDL, fmt.Sprintf(idColumn, "entries"), decimalType, decimalType),
		fmt.Sprintf(genresDDL, fmt.Sprintf(idColumn, "genres")),
		entryGenresDDL,
		entryScreenshotsDDL,
	)
	return append(stmts, commonIndexes...)
}

var (
	duckDBDialect = &dialect{
		name:       config.DriverDuckDB,
		driverName: "duckdb",
		schema: schemaFor(
			"id BIGINT PRIMARY KEY DEFAULT nextval('%s_id_seq')",
			"DECIMAL(10,2)",
			`CREATE SEQUENCE IF NOT EXISTS entries_id_seq START 1`,
			`CREATE SEQUENCE IF NOT EXISTS genres_id_seq START 1`,
		),
	}

	sqliteDialect = &dialect{
		name:       config.DriverSQLite,
		driverName: "sqlite3",
		maxConns:   1,
		schema:     schemaFor("id INTEGER PRIMARY KEY AUTOINCREMENT /* %s */", "NUMERIC(10,2)"),
	}

	postgresDialect = &dialect{
		name:       config.DriverPostgres,
		driverName: "pgx",
		numbered:   true,
		schema:     schemaFor("id BIGSERIAL PRIMARY KEY /* %s */", "NUMERIC(10,2)"),
	}
)
