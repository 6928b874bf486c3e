// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/catalogsync/internal/logging"
)

// MaxBatchSize is the largest page size the upstream API accepts.
const MaxBatchSize = 500

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIGDB(); err != nil {
		return err
	}
	if err := c.validateTokenCache(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateIGDB() error {
	if err := validateHTTPURL(c.IGDB.BaseURL, "IGDB_BASE_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.IGDB.TokenURL, "IGDB_TOKEN_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.IGDB.ImageBaseURL, "IGDB_IMAGE_BASE_URL"); err != nil {
		return err
	}
	if c.IGDB.RateLimit <= 0 {
		return fmt.Errorf("IGDB_RATE_LIMIT must be positive, got %v", c.IGDB.RateLimit)
	}
	if c.IGDB.Timeout <= 0 {
		return fmt.Errorf("IGDB_TIMEOUT must be positive, got %v", c.IGDB.Timeout)
	}
	if c.IGDB.TokenCacheKey == "" {
		return fmt.Errorf("IGDB_TOKEN_CACHE_KEY must not be empty")
	}
	if c.IGDB.TokenCacheTTL <= 0 {
		return fmt.Errorf("IGDB_TOKEN_CACHE_TTL must be positive, got %v", c.IGDB.TokenCacheTTL)
	}
	if c.IGDB.CoverSize == "" || c.IGDB.ScreenshotSize == "" {
		return fmt.Errorf("IGDB image sizes must not be empty")
	}
	return nil
}

func (c *Config) validateTokenCache() error {
	switch c.TokenCache.Backend {
	case TokenCacheBadger, TokenCacheMemory:
		return nil
	case TokenCacheRedis:
		if c.TokenCache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when TOKEN_CACHE_BACKEND=redis")
		}
		return nil
	default:
		return fmt.Errorf("TOKEN_CACHE_BACKEND must be badger, redis or memory, got %q", c.TokenCache.Backend)
	}
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB, DriverSQLite:
		return nil
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
		}
		return nil
	default:
		return fmt.Errorf("DATABASE_DRIVER must be duckdb, sqlite or postgres, got %q", c.Database.Driver)
	}
}

func (c *Config) validateImport() error {
	if c.Import.Count < 1 {
		return fmt.Errorf("IMPORT_COUNT must be at least 1, got %d", c.Import.Count)
	}
	if c.Import.Offset < 0 {
		return fmt.Errorf("IMPORT_OFFSET must not be negative, got %d", c.Import.Offset)
	}
	if c.Import.MinRating < 0 || c.Import.MinRating > 100 {
		return fmt.Errorf("IMPORT_MIN_RATING must be between 0 and 100, got %v", c.Import.MinRating)
	}
	if c.Import.BatchSize < 1 || c.Import.BatchSize > MaxBatchSize {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be between 1 and %d, got %d", MaxBatchSize, c.Import.BatchSize)
	}
	if c.Import.MaxScreenshots < 0 {
		return fmt.Errorf("IMPORT_MAX_SCREENSHOTS must not be negative, got %d", c.Import.MaxScreenshots)
	}
	if c.Import.ScheduleInterval < 0 {
		return fmt.Errorf("IMPORT_SCHEDULE_INTERVAL must not be negative, got %v", c.Import.ScheduleInterval)
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsNone, EventsGoChannel:
	case EventsNATS:
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("EVENTS_NATS_URL is invalid: %w", err)
		}
	case EventsKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("EVENTS_KAFKA_BROKERS is required when EVENTS_BACKEND=kafka")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be none, gochannel, nats or kafka, got %q", c.Events.Backend)
	}
	if c.Events.Backend != EventsNone && c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC must not be empty")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// validateHTTPURL checks scheme and host. Paths are allowed since API bases are versioned.
func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch parsed.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
