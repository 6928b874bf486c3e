// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/metrics"
)

// Token is the result of a credential exchange.
type Token struct {
	AccessToken string
	// ExpiresIn is informational; the cache TTL is configured independently.
	ExpiresIn time.Duration
}

// CredentialExchanger trades client credentials for a bearer token.
// Failures must be reported as *CredentialError.
type CredentialExchanger interface {
	Exchange(ctx context.Context) (*Token, error)
}

// TokenCache persists bearer tokens between processes. A miss is (_, false, nil).
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TokenSource is what the Client needs from a token manager.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// TokenManager obtains and caches the bearer token.
//
// Lookups try the in-process copy, then the persistent cache, then a credential
// exchange. Concurrent misses share a single exchange. Persistent cache failures
// are logged and otherwise ignored: the in-process copy keeps the client working.
type TokenManager struct {
	exchanger CredentialExchanger
	cache     TokenCache
	key       string
	ttl       time.Duration

	mu      sync.RWMutex
	token   string
	revoked string // last invalidated value, ignored if the persistent cache still returns it

	group  singleflight.Group
	logger zerolog.Logger
}

// NewTokenManager creates a token manager. cache may be nil.
func NewTokenManager(exchanger CredentialExchanger, cache TokenCache, key string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		exchanger: exchanger,
		cache:     cache,
		key:       key,
		ttl:       ttl,
		logger:    logging.WithComponent("igdb-token"),
	}
}

// Token returns a bearer token, performing at most one exchange per process at a time.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if tok := m.current(); tok != "" {
		metrics.RecordTokenLookup("memory")
		return tok, nil
	}

	v, err, _ := m.group.Do(m.key, func() (interface{}, error) {
		return m.load(ctx)
	})
	if err != nil {
		return "", err
	}
	tok, ok := v.(string)
	if !ok {
		return "", &CredentialError{Reason: "unexpected token type"}
	}
	return tok, nil
}

func (m *TokenManager) current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *TokenManager) load(ctx context.Context) (string, error) {
	// A concurrent flight may have filled the in-process copy already.
	if tok := m.current(); tok != "" {
		return tok, nil
	}

	if tok := m.fromCache(ctx); tok != "" {
		m.store(tok)
		metrics.RecordTokenLookup("persistent")
		return tok, nil
	}

	tok, err := m.exchanger.Exchange(ctx)
	metrics.RecordTokenRefresh(err)
	if err != nil {
		m.logger.Error().Err(err).Msg("Credential exchange failed")
		return "", err
	}
	metrics.RecordTokenLookup("exchange")

	m.store(tok.AccessToken)
	if m.cache != nil {
		if err := m.cache.Set(ctx, m.key, tok.AccessToken, m.ttl); err != nil {
			m.logger.Warn().Err(err).Str("key", m.key).Msg("Failed to persist access token")
		}
	}

	m.logger.Info().Dur("expires_in", tok.ExpiresIn).Dur("cache_ttl", m.ttl).Msg("Obtained access token")
	return tok.AccessToken, nil
}

func (m *TokenManager) fromCache(ctx context.Context) string {
	if m.cache == nil {
		return ""
	}
	tok, ok, err := m.cache.Get(ctx, m.key)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", m.key).Msg("Token cache read failed, treating as miss")
		return ""
	}
	if !ok {
		return ""
	}

	m.mu.RLock()
	revoked := m.revoked
	m.mu.RUnlock()
	if tok == revoked {
		return ""
	}
	return tok
}

func (m *TokenManager) store(tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = tok
}

// Invalidate clears the in-process and persistent token. It does not fetch a new one.
func (m *TokenManager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	if m.token != "" {
		m.revoked = m.token
	}
	m.token = ""
	m.mu.Unlock()

	m.logger.Info().Msg("Access token invalidated")

	if m.cache == nil {
		return nil
	}
	if err := m.cache.Delete(ctx, m.key); err != nil {
		m.logger.Warn().Err(err).Str("key", m.key).Msg("Failed to delete cached access token")
		return err
	}
	return nil
}
