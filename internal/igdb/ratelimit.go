// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/catalogsync/internal/metrics"
)

// RateLimiter enforces a minimum spacing of 1/rps between outbound requests.
// The first call never blocks. One instance is shared by everything that
// talks to the API in this process.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing rps requests per second with a burst of one.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the caller may issue its request or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := r.limiter.Wait(ctx)
	metrics.RecordRateLimitWait(time.Since(start))
	return err
}

// Interval returns the enforced spacing between requests.
func (r *RateLimiter) Interval() time.Duration {
	limit := r.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
