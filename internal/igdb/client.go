// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
client.go - IGDB Query Client

Client executes one logical query against an API endpoint:

 1. wait for the shared rate limiter
 2. fetch a bearer token
 3. POST the canonical query text
 4. on 401 invalidate the token, fetch a fresh one and POST once more;
    a second 401 is returned as *AuthError
 5. any other non-2xx status, transport failure or undecodable body is
    returned as *ProtocolError
 6. decode the JSON array body into the caller's slice; an empty array is
    a valid result meaning the upstream has nothing more

The retry after a 401 reuses the rate limiter slot of the original request.
Token and limiter state live in ClientState, constructed once per process
and passed in explicitly.
*/

//nolint:staticcheck // File documentation, not package doc
package igdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/metrics"
)

// Limiter is what the Client needs from a rate limiter.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ClientState is the per-process mutable state shared by every request:
// the token lifecycle and the request spacing.
type ClientState struct {
	Tokens  TokenSource
	Limiter Limiter
}

// Client executes queries against the IGDB API.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	state      *ClientState
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for baseURL sending clientID as the Client-ID header.
func NewClient(baseURL, clientID string, state *ClientState, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		state:      state,
		logger:     logging.WithComponent("igdb"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client using the configured base URL, client id and timeout.
func NewClientFromConfig(cfg *config.IGDBConfig, state *ClientState) *Client {
	return NewClient(cfg.BaseURL, cfg.ClientID, state,
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
}

// Execute builds q and runs it against endpoint, decoding the result array into out.
func (c *Client) Execute(ctx context.Context, endpoint string, q *Query, out interface{}) error {
	body, err := q.Build()
	if err != nil {
		return err
	}
	return c.Do(ctx, endpoint, body, out)
}

// Do runs raw query text against endpoint. The text is normalized before sending.
func (c *Client) Do(ctx context.Context, endpoint, query string, out interface{}) error {
	query = Normalize(query)

	if err := c.state.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("igdb: %s: rate limiter: %w", endpoint, err)
	}

	token, err := c.state.Tokens.Token(ctx)
	if err != nil {
		return err
	}

	status, body, err := c.send(ctx, endpoint, query, token)
	if err != nil {
		return c.protocolError(ctx, &ProtocolError{Endpoint: endpoint, Query: query, Err: err})
	}

	if status == http.StatusUnauthorized {
		logging.Ctx(ctx).Warn().Str("endpoint", endpoint).Msg("Access token rejected, refreshing once")
		if invErr := c.state.Tokens.Invalidate(ctx); invErr != nil {
			logging.Ctx(ctx).Warn().Err(invErr).Msg("Token invalidation incomplete")
		}

		token, err = c.state.Tokens.Token(ctx)
		if err != nil {
			return err
		}

		status, body, err = c.send(ctx, endpoint, query, token)
		if err != nil {
			return c.protocolError(ctx, &ProtocolError{Endpoint: endpoint, Query: query, Err: err})
		}
		if status == http.StatusUnauthorized {
			logging.Ctx(ctx).Error().Str("endpoint", endpoint).Msg("Access token rejected after refresh")
			return &AuthError{Endpoint: endpoint, Body: string(body)}
		}
	}

	if status < 200 || status >= 300 {
		return c.protocolError(ctx, &ProtocolError{
			Endpoint:   endpoint,
			StatusCode: status,
			Body:       string(body),
			Query:      query,
		})
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.protocolError(ctx, &ProtocolError{
			Endpoint:   endpoint,
			StatusCode: status,
			Query:      query,
			Err:        fmt.Errorf("decode response: %w", err),
		})
	}
	return nil
}

// send performs one POST. Success bodies are read fully; error bodies are capped at 64KB.
func (c *Client) send(ctx context.Context, endpoint, query, token string) (int, []byte, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(query))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, 0, time.Since(start))
		return 0, nil, err
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, []byte(readBodyForError(resp.Body)), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) protocolError(ctx context.Context, perr *ProtocolError) error {
	logging.Ctx(ctx).Error().
		Str("endpoint", perr.Endpoint).
		Int("status", perr.StatusCode).
		Str("body", perr.Body).
		Str("query", perr.Query).
		AnErr("cause", perr.Err).
		Msg("IGDB request failed")
	return perr
}
