// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/catalogsync/config.yaml",
	"/etc/catalogsync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		IGDB: IGDBConfig{
			BaseURL:        "https://api.igdb.com/v4",
			TokenURL:       "https://id.twitch.tv/oauth2/token",
			ImageBaseURL:   "https://images.igdb.com/igdb/image/upload",
			CoverSize:      "cover_big",
			ScreenshotSize: "screenshot_big",
			RateLimit:      4,
			Timeout:        30 * time.Second,
			TokenCacheKey:  "igdb_access_token",
			TokenCacheTTL:  30 * 24 * time.Hour,
			CircuitBreaker: true,
		},
		TokenCache: TokenCacheConfig{
			Backend: TokenCacheBadger,
		},
		State: StateConfig{
			Path: "/data/state",
		},
		Database: DatabaseConfig{
			Driver:    DriverDuckDB,
			Path:      "/data/catalog.duckdb",
			MaxMemory: "1GB",
		},
		Import: ImportConfig{
			Count:            100,
			Offset:           0,
			MinRating:        60,
			BatchSize:        50,
			MaxScreenshots:   10,
			ScheduleInterval: 24 * time.Hour,
			RunOnStartup:     false,
		},
		Events: EventsConfig{
			Backend: EventsNone,
			Topic:   "catalog.entry.imported",
			NATSURL: "nats://127.0.0.1:4222",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9464,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, the optional YAML file and the environment,
// then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"events.kafka_brokers",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"igdb_client_id":               "igdb.client_id",
	"igdb_client_secret":           "igdb.client_secret",
	"igdb_base_url":                "igdb.base_url",
	"igdb_token_url":               "igdb.token_url",
	"igdb_image_base_url":          "igdb.image_base_url",
	"igdb_default_cover_size":      "igdb.cover_size",
	"igdb_default_screenshot_size": "igdb.screenshot_size",
	"igdb_rate_limit":              "igdb.rate_limit",
	"igdb_timeout":                 "igdb.timeout",
	"igdb_token_cache_key":         "igdb.token_cache_key",
	"igdb_token_cache_ttl":         "igdb.token_cache_ttl",
	"igdb_circuit_breaker":         "igdb.circuit_breaker",

	"token_cache_backend": "token_cache.backend",
	"redis_addr":          "token_cache.redis_addr",
	"redis_password":      "token_cache.redis_password",
	"redis_db":            "token_cache.redis_db",

	"state_path": "state.path",

	"database_driver":   "database.driver",
	"database_path":     "database.path",
	"database_dsn":      "database.dsn",
	"duckdb_max_memory": "database.max_memory",

	"import_count":             "import.count",
	"import_offset":            "import.offset",
	"import_min_rating":        "import.min_rating",
	"import_batch_size":        "import.batch_size",
	"import_max_screenshots":   "import.max_screenshots",
	"import_resume":            "import.resume",
	"import_schedule_interval": "import.schedule_interval",
	"import_run_on_startup":    "import.run_on_startup",

	"events_backend":       "events.backend",
	"events_topic":         "events.topic",
	"events_nats_url":      "events.nats_url",
	"events_kafka_brokers": "events.kafka_brokers",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
//
//   - IGDB_CLIENT_ID -> igdb.client_id
//   - DATABASE_DRIVER -> database.driver
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
