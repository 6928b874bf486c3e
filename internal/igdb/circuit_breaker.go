// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/metrics"
)

// BreakerName is the circuit breaker label used in logs and metrics.
const BreakerName = "igdb-api"

// CircuitBreakerClient wraps Client so that a failing upstream stops being
// hammered. Only transport failures, 429 and 5xx responses count against the
// breaker; malformed queries and credential problems do not.
//
// Rejections while the circuit is open surface as *ProtocolError so callers
// handle them like any other failed page.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]Game]
	name   string
}

// NewCircuitBreakerClient wraps client. The circuit opens once at least 10
// requests were seen in the last minute and 60% of them failed; it probes
// again after two minutes with up to 3 requests.
func NewCircuitBreakerClient(client *Client) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(BreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Game](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
		IsSuccessful: isBreakerSuccess,
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: BreakerName}
}

// isBreakerSuccess reports whether err says nothing about upstream health.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return true
	}
	var perr *ProtocolError
	if errors.As(err, &perr) {
		if perr.StatusCode == 0 {
			return false
		}
		return perr.StatusCode < http.StatusInternalServerError && perr.StatusCode != http.StatusTooManyRequests
	}
	return true
}

func (cbc *CircuitBreakerClient) execute(endpoint string, fn func() ([]Game, error)) ([]Game, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, &ProtocolError{Endpoint: endpoint, Err: err}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// State returns the current breaker state name.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FetchCandidates fetches one page of import candidates with breaker protection.
func (cbc *CircuitBreakerClient) FetchCandidates(ctx context.Context, limit, offset int, minRating float64) ([]Game, error) {
	return cbc.execute(EndpointGames, func() ([]Game, error) {
		return cbc.client.FetchCandidates(ctx, limit, offset, minRating)
	})
}

// FetchPopular fetches one page of rated games with breaker protection.
func (cbc *CircuitBreakerClient) FetchPopular(ctx context.Context, limit, offset int) ([]Game, error) {
	return cbc.execute(EndpointGames, func() ([]Game, error) {
		return cbc.client.FetchPopular(ctx, limit, offset)
	})
}

// FetchByID fetches one game with breaker protection.
func (cbc *CircuitBreakerClient) FetchByID(ctx context.Context, id int64) (*Game, error) {
	games, err := cbc.execute(EndpointGames, func() ([]Game, error) {
		g, err := cbc.client.FetchByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []Game{*g}, nil
	})
	if err != nil {
		return nil, err
	}
	return &games[0], nil
}

// SearchGames runs a text search with breaker protection.
func (cbc *CircuitBreakerClient) SearchGames(ctx context.Context, term string, limit int) ([]Game, error) {
	return cbc.execute(EndpointGames, func() ([]Game, error) {
		return cbc.client.SearchGames(ctx, term, limit)
	})
}

// Probe runs the connectivity probe with breaker protection.
func (cbc *CircuitBreakerClient) Probe(ctx context.Context) ([]Game, error) {
	return cbc.execute(EndpointGames, func() ([]Game, error) {
		return cbc.client.Probe(ctx)
	})
}
