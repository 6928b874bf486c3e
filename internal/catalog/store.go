// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/logging"
)

// Store is the SQL-backed catalog.
type Store struct {
	db      *sql.DB
	dialect *dialect
	logger  zerolog.Logger
}

// Open connects to the configured database and creates the schema if needed.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := dataSourceName(d, cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	s := &Store{db: db, dialect: d, logger: logging.WithComponent("catalog")}
	s.configureConnectionPool()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	if err := s.createSchema(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("driver", d.name).Str("path", cfg.Path).Msg("Catalog store ready")
	return s, nil
}

func dataSourceName(d *dialect, cfg *config.DatabaseConfig) (string, error) {
	switch d.name {
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return "", fmt.Errorf("catalog: postgres driver requires a DSN")
		}
		return cfg.DSN, nil

	case config.DriverSQLite:
		if cfg.Path == "" {
			return "file::memory:?_foreign_keys=1", nil
		}
		if err := ensureDir(cfg.Path); err != nil {
			return "", err
		}
		return "file:" + cfg.Path + "?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL", nil

	default:
		if cfg.Path != "" {
			if err := ensureDir(cfg.Path); err != nil {
				return "", err
			}
		}
		params := url.Values{}
		params.Set("access_mode", "read_write")
		params.Set("threads", fmt.Sprint(runtime.NumCPU()))
		if cfg.MaxMemory != "" {
			params.Set("max_memory", cfg.MaxMemory)
		}
		params.Set("autoinstall_known_extensions", "false")
		params.Set("autoload_known_extensions", "false")
		return cfg.Path + "?" + params.Encode(), nil
	}
}

// ensureDir creates the parent directory of a database file (0750).
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func (s *Store) configureConnectionPool() {
	if s.dialect.maxConns > 0 {
		// In-memory SQLite lives and dies with its only connection.
		s.db.SetMaxOpenConns(s.dialect.maxConns)
		s.db.SetMaxIdleConns(s.dialect.maxConns)
		s.db.SetConnMaxLifetime(0)
		s.db.SetConnMaxIdleTime(0)
		return
	}
	s.db.SetMaxOpenConns(runtime.NumCPU())
	s.db.SetMaxIdleConns(2)
	s.db.SetConnMaxLifetime(time.Hour)
	s.db.SetConnMaxIdleTime(5 * time.Minute)
}

func (s *Store) createSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", stmt, err)
		}
	}
	return nil
}

// Driver returns the dialect name in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database after setup error")
	}
}
