// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redis/v8"

	"github.com/tomtom215/catalogsync/internal/catalog"
	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/events"
	"github.com/tomtom215/catalogsync/internal/igdb"
	catalogimport "github.com/tomtom215/catalogsync/internal/import"
	"github.com/tomtom215/catalogsync/internal/logging"
)

// upstream is the part of the IGDB client the commands use.
// Both igdb.Client and igdb.CircuitBreakerClient satisfy it.
type upstream interface {
	FetchCandidates(ctx context.Context, limit, offset int, minRating float64) ([]igdb.Game, error)
	SearchGames(ctx context.Context, term string, limit int) ([]igdb.Game, error)
	Probe(ctx context.Context) ([]igdb.Game, error)
}

// app holds the wired components of one process.
type app struct {
	cfg         *config.Config
	state       *badger.DB
	redis       *redis.Client
	credentials *igdb.ClientCredentials
	tokens      *igdb.TokenManager
	client      *igdb.Client
	breaker     *igdb.CircuitBreakerClient
	source      upstream

	store     *catalog.Store
	publisher events.Publisher
	importer  *catalogimport.Importer
}

// newUpstream wires the token cache, token manager, rate limiter and client.
func newUpstream(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	state, err := openState(cfg.State.Path)
	if err != nil {
		return nil, err
	}
	a.state = state

	cache, err := a.tokenCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.credentials = igdb.NewClientCredentials(cfg.IGDB.ClientID, cfg.IGDB.ClientSecret, cfg.IGDB.TokenURL, nil)
	a.tokens = igdb.NewTokenManager(a.credentials, cache, cfg.IGDB.TokenCacheKey, cfg.IGDB.TokenCacheTTL)
	a.client = igdb.NewClientFromConfig(&cfg.IGDB, &igdb.ClientState{
		Tokens:  a.tokens,
		Limiter: igdb.NewRateLimiter(cfg.IGDB.RateLimit),
	})

	a.source = a.client
	if cfg.IGDB.CircuitBreaker {
		a.breaker = igdb.NewCircuitBreakerClient(a.client)
		a.source = a.breaker
	}
	return a, nil
}

// newApp wires everything an import needs.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a, err := newUpstream(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.store, err = catalog.Open(ctx, &cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.publisher, err = events.NewPublisher(&cfg.Events)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("events publisher: %w", err)
	}

	images := igdb.NewImageURLBuilder(cfg.IGDB.ImageBaseURL, cfg.IGDB.CoverSize, cfg.IGDB.ScreenshotSize)
	mapper, err := catalogimport.NewMapper(images, catalogimport.NewRandSource(0),
		catalogimport.WithMaxScreenshots(cfg.Import.MaxScreenshots))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.importer = catalogimport.NewImporter(a.tokens, a.source, a.store, mapper,
		catalogimport.WithPublisher(a.publisher),
		catalogimport.WithProgress(catalogimport.NewBadgerProgress(a.state)),
	)

	logging.Info().
		Str("database", a.store.Driver()).
		Str("token_cache", cfg.TokenCache.Backend).
		Str("events", cfg.Events.Backend).
		Bool("circuit_breaker", cfg.IGDB.CircuitBreaker).
		Msg("Components initialized")
	return a, nil
}

func (a *app) tokenCache(ctx context.Context) (igdb.TokenCache, error) {
	switch a.cfg.TokenCache.Backend {
	case config.TokenCacheRedis:
		client, err := igdb.NewRedisClient(ctx, a.cfg.TokenCache.RedisAddr, a.cfg.TokenCache.RedisPassword, a.cfg.TokenCache.RedisDB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return igdb.NewRedisTokenCache(client), nil
	case config.TokenCacheMemory:
		return igdb.NewMemoryTokenCache(), nil
	default:
		return igdb.NewBadgerTokenCache(a.state), nil
	}
}

// openState opens the Badger store holding the token cache and import progress.
// An empty path keeps it in memory.
func openState(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return db, nil
}

// Close releases every component that was opened.
func (a *app) Close() {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.state != nil {
		errs = append(errs, a.state.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}
}
