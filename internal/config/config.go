// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package config

import "time"

// Supported backends.
const (
	TokenCacheBadger = "badger"
	TokenCacheRedis  = "redis"
	TokenCacheMemory = "memory"

	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EventsNone      = "none"
	EventsGoChannel = "gochannel"
	EventsNATS      = "nats"
	EventsKafka     = "kafka"
)

// Config is the root configuration.
type Config struct {
	IGDB       IGDBConfig       `koanf:"igdb"`
	TokenCache TokenCacheConfig `koanf:"token_cache"`
	State      StateConfig      `koanf:"state"`
	Database   DatabaseConfig   `koanf:"database"`
	Import     ImportConfig     `koanf:"import"`
	Events     EventsConfig     `koanf:"events"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// IGDBConfig holds upstream API settings.
type IGDBConfig struct {
	ClientID       string        `koanf:"client_id"`
	ClientSecret   string        `koanf:"client_secret"`
	BaseURL        string        `koanf:"base_url"`        // https://api.igdb.com/v4
	TokenURL       string        `koanf:"token_url"`       // Twitch OAuth token endpoint
	ImageBaseURL   string        `koanf:"image_base_url"`  // https://images.igdb.com/igdb/image/upload
	CoverSize      string        `koanf:"cover_size"`      // cover_big
	ScreenshotSize string        `koanf:"screenshot_size"` // screenshot_big
	RateLimit      float64       `koanf:"rate_limit"`      // requests per second
	Timeout        time.Duration `koanf:"timeout"`
	TokenCacheKey  string        `koanf:"token_cache_key"`
	TokenCacheTTL  time.Duration `koanf:"token_cache_ttl"` // independent of expires_in

	// CircuitBreaker wraps fetches in a gobreaker circuit breaker.
	CircuitBreaker bool `koanf:"circuit_breaker"`
}

// TokenCacheConfig selects where bearer tokens are persisted between runs.
type TokenCacheConfig struct {
	Backend       string `koanf:"backend"` // badger, redis, memory
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// StateConfig locates the embedded BadgerDB used for the token cache and import progress.
// An empty path runs Badger in memory.
type StateConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig selects the catalog store.
type DatabaseConfig struct {
	Driver    string `koanf:"driver"`     // duckdb, sqlite, postgres
	Path      string `koanf:"path"`       // file path for duckdb/sqlite, "" for in-memory
	DSN       string `koanf:"dsn"`        // postgres connection string
	MaxMemory string `koanf:"max_memory"` // DuckDB memory_limit
}

// ImportConfig holds default run parameters and the serve-mode schedule.
type ImportConfig struct {
	Count            int           `koanf:"count"`
	Offset           int           `koanf:"offset"`
	MinRating        float64       `koanf:"min_rating"`
	BatchSize        int           `koanf:"batch_size"`
	MaxScreenshots   int           `koanf:"max_screenshots"`
	Resume           bool          `koanf:"resume"`            // start from the saved offset
	ScheduleInterval time.Duration `koanf:"schedule_interval"` // 0 disables periodic runs
	RunOnStartup     bool          `koanf:"run_on_startup"`
}

// EventsConfig selects the publisher for imported-entry events.
type EventsConfig struct {
	Backend      string   `koanf:"backend"` // none, gochannel, nats, kafka
	Topic        string   `koanf:"topic"`
	NATSURL      string   `koanf:"nats_url"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
}

// ServerConfig configures the serve-mode HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
