// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.IGDB.BaseURL != "https://api.igdb.com/v4" {
		t.Errorf("IGDB.BaseURL = %q, want https://api.igdb.com/v4", cfg.IGDB.BaseURL)
	}
	if cfg.IGDB.TokenURL != "https://id.twitch.tv/oauth2/token" {
		t.Errorf("IGDB.TokenURL = %q", cfg.IGDB.TokenURL)
	}
	if cfg.IGDB.RateLimit != 4 {
		t.Errorf("IGDB.RateLimit = %v, want 4", cfg.IGDB.RateLimit)
	}
	if cfg.IGDB.TokenCacheTTL != 30*24*time.Hour {
		t.Errorf("IGDB.TokenCacheTTL = %v, want 720h", cfg.IGDB.TokenCacheTTL)
	}
	if cfg.IGDB.TokenCacheKey != "igdb_access_token" {
		t.Errorf("IGDB.TokenCacheKey = %q", cfg.IGDB.TokenCacheKey)
	}
	if cfg.IGDB.CoverSize != "cover_big" || cfg.IGDB.ScreenshotSize != "screenshot_big" {
		t.Errorf("image sizes = %q/%q", cfg.IGDB.CoverSize, cfg.IGDB.ScreenshotSize)
	}
	if cfg.Import.Count != 100 || cfg.Import.Offset != 0 || cfg.Import.MinRating != 60 || cfg.Import.BatchSize != 50 {
		t.Errorf("import defaults = %+v", cfg.Import)
	}
	if cfg.Import.MaxScreenshots != 10 {
		t.Errorf("Import.MaxScreenshots = %d, want 10", cfg.Import.MaxScreenshots)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 9464 {
		t.Errorf("Server.Port = %d, want 9464", cfg.Server.Port)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
igdb:
  client_id: yaml-client
  rate_limit: 2
database:
  driver: sqlite
  path: /tmp/catalog.db
import:
  count: 250
  batch_size: 100
events:
  backend: kafka
  kafka_brokers:
    - k1:9092
    - k2:9092
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.IGDB.ClientID != "yaml-client" {
		t.Errorf("IGDB.ClientID = %q, want yaml-client", cfg.IGDB.ClientID)
	}
	if cfg.IGDB.RateLimit != 2 {
		t.Errorf("IGDB.RateLimit = %v, want 2", cfg.IGDB.RateLimit)
	}
	if cfg.IGDB.TokenURL != "https://id.twitch.tv/oauth2/token" {
		t.Errorf("default TokenURL lost: %q", cfg.IGDB.TokenURL)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Import.Count != 250 || cfg.Import.BatchSize != 100 {
		t.Errorf("import = %+v", cfg.Import)
	}
	if !reflect.DeepEqual(cfg.Events.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("KafkaBrokers = %v", cfg.Events.KafkaBrokers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("IGDB_CLIENT_ID", "env-client")
	t.Setenv("IGDB_CLIENT_SECRET", "env-secret")
	t.Setenv("IGDB_TOKEN_CACHE_TTL", "48h")
	t.Setenv("IMPORT_MIN_RATING", "75.5")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("EVENTS_KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("SOME_UNRELATED_VAR", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IGDB.ClientID != "env-client" || cfg.IGDB.ClientSecret != "env-secret" {
		t.Errorf("credentials = %q/%q", cfg.IGDB.ClientID, cfg.IGDB.ClientSecret)
	}
	if cfg.IGDB.TokenCacheTTL != 48*time.Hour {
		t.Errorf("TokenCacheTTL = %v, want 48h", cfg.IGDB.TokenCacheTTL)
	}
	if cfg.Import.MinRating != 75.5 {
		t.Errorf("MinRating = %v, want 75.5", cfg.Import.MinRating)
	}
	if !reflect.DeepEqual(cfg.Events.KafkaBrokers, []string{"a:9092", "b:9092"}) {
		t.Errorf("KafkaBrokers = %v", cfg.Events.KafkaBrokers)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
}

func TestLoad_InvalidEnvFailsValidation(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("IMPORT_BATCH_SIZE", "900")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a batch size above 500")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"IGDB_CLIENT_ID", "igdb.client_id"},
		{"IGDB_DEFAULT_COVER_SIZE", "igdb.cover_size"},
		{"REDIS_ADDR", "token_cache.redis_addr"},
		{"DATABASE_DRIVER", "database.driver"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}
