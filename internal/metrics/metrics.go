// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes for import_records_total.
const (
	OutcomeImported  = "imported"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Batch outcomes for import_batches_total.
const (
	BatchFetched = "fetched"
	BatchFailed  = "failed"
	BatchEmpty   = "empty"
)

var (
	// Upstream API Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_requests_total",
			Help: "Total number of upstream API requests by endpoint and HTTP status (0 = transport error)",
		},
		[]string{"endpoint", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "igdb_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "igdb_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate limiter slot",
			Buckets: []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_token_refreshes_total",
			Help: "Total number of credential exchanges by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	TokenCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_token_cache_lookups_total",
			Help: "Token lookups by the layer that answered",
		},
		[]string{"source"}, // "memory", "persistent", "exchange"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Catalog Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_db_query_duration_seconds",
			Help:    "Duration of catalog store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_db_query_errors_total",
			Help: "Total number of failed catalog store operations",
		},
		[]string{"operation"},
	)

	// Import Metrics
	ImportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_records_total",
			Help: "Imported records by outcome",
		},
		[]string{"outcome"},
	)

	ImportBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_batches_total",
			Help: "Fetched batches by outcome",
		},
		[]string{"outcome"},
	)

	ImportRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "import_run_duration_seconds",
			Help:    "Wall-clock duration of import runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	ImportRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_running",
			Help: "1 while an import run is in progress",
		},
	)

	ImportLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last completed import run",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_published_total",
			Help: "Imported-entry events by publish result",
		},
		[]string{"backend", "result"},
	)

	// Serve-mode HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "route"},
	)
)

// RecordUpstreamRequest records one upstream HTTP exchange. Status 0 marks a transport failure.
func RecordUpstreamRequest(endpoint string, status int, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordRateLimitWait records how long a caller blocked on the rate limiter.
func RecordRateLimitWait(d time.Duration) {
	RateLimitWait.Observe(d.Seconds())
}

// RecordTokenRefresh records a credential exchange.
func RecordTokenRefresh(err error) {
	if err != nil {
		TokenRefreshes.WithLabelValues("failure").Inc()
		return
	}
	TokenRefreshes.WithLabelValues("success").Inc()
}

// RecordTokenLookup records which layer produced a token.
func RecordTokenLookup(source string) {
	TokenCacheLookups.WithLabelValues(source).Inc()
}

// RecordDBQuery records a catalog store operation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordImportRecord counts one record outcome.
func RecordImportRecord(outcome string) {
	ImportRecords.WithLabelValues(outcome).Inc()
}

// RecordImportBatch counts one batch outcome.
func RecordImportBatch(outcome string) {
	ImportBatches.WithLabelValues(outcome).Inc()
}

// RecordImportRun records a finished run. Only runs without a fatal error move the last-success gauge.
func RecordImportRun(duration time.Duration, err error) {
	ImportRunDuration.Observe(duration.Seconds())
	if err == nil {
		ImportLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// SetImportRunning flips the running gauge.
func SetImportRunning(running bool) {
	if running {
		ImportRunning.Set(1)
		return
	}
	ImportRunning.Set(0)
}

// RecordEventPublish counts one event publish attempt.
func RecordEventPublish(backend string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(backend, result).Inc()
}

// RecordAPIRequest records a serve-mode HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
