// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalogimport

import (
	"time"

	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/igdb"
	"github.com/tomtom215/catalogsync/internal/validation"
)

// State is the importer's position in a run.
type State string

const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateFetching       State = "fetching"
	StateProcessing     State = "processing"
	StateCompleted      State = "completed"
)

// RunParams are the parameters of one import run.
type RunParams struct {
	// Count is the number of records to process (imported plus duplicates).
	Count int `json:"count" validate:"min=1"`

	// Offset is the upstream offset of the first page.
	Offset int `json:"offset" validate:"min=0"`

	// MinRating filters candidates by total rating; 0 disables the filter.
	MinRating float64 `json:"min_rating" validate:"min=0,max=100"`

	// BatchSize is the page size, capped at igdb.MaxLimit.
	BatchSize int `json:"batch_size" validate:"min=1"`

	// Resume starts from the saved next offset instead of Offset.
	Resume bool `json:"resume"`
}

// ParamsFromConfig returns the configured default run parameters.
func ParamsFromConfig(cfg *config.ImportConfig) RunParams {
	return RunParams{
		Count:     cfg.Count,
		Offset:    cfg.Offset,
		MinRating: cfg.MinRating,
		BatchSize: cfg.BatchSize,
		Resume:    cfg.Resume,
	}
}

// Validate checks the parameters.
func (p RunParams) Validate() error {
	if verr := validation.ValidateStruct(p); verr != nil {
		return verr
	}
	return nil
}

// EffectiveBatchSize is BatchSize capped at the upstream maximum.
func (p RunParams) EffectiveBatchSize() int {
	return min(p.BatchSize, igdb.MaxLimit)
}

// TotalBatches is ceil(Count / EffectiveBatchSize).
func (p RunParams) TotalBatches() int {
	b := p.EffectiveBatchSize()
	if b <= 0 {
		return 0
	}
	return (p.Count + b - 1) / b
}

// ImportStats holds statistics about an import run.
type ImportStats struct {
	// Target is the requested record count.
	Target int `json:"target"`

	// Imported is the number of new entries stored.
	Imported int `json:"imported"`

	// SkippedDuplicate is the number of records already in the catalog.
	SkippedDuplicate int `json:"skipped_duplicate"`

	// Failed is the number of records that could not be mapped or stored.
	Failed int `json:"failed"`

	// Processed is Imported + SkippedDuplicate.
	Processed int `json:"processed"`

	// BatchesAttempted counts page fetches; BatchesFailed the ones that errored.
	BatchesAttempted int `json:"batches_attempted"`
	BatchesFailed    int `json:"batches_failed"`

	// StartOffset is where the run began; NextOffset where the next run would.
	StartOffset int `json:"start_offset"`
	NextOffset  int `json:"next_offset"`

	MinRating     float64   `json:"min_rating"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time,omitempty"`
}

// Duration returns the duration of the run.
func (s *ImportStats) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Progress returns processed records as a percentage of the target (0-100).
func (s *ImportStats) Progress() float64 {
	if s.Target == 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.Target) * 100
}

// ProgressSummary is the JSON status view of a run.
type ProgressSummary struct {
	State            State     `json:"state"`
	Running          bool      `json:"running"`
	Progress         float64   `json:"progress"`
	Target           int       `json:"target"`
	Imported         int       `json:"imported"`
	SkippedDuplicate int       `json:"skipped_duplicate"`
	Failed           int       `json:"failed"`
	Processed        int       `json:"processed"`
	BatchesAttempted int       `json:"batches_attempted"`
	BatchesFailed    int       `json:"batches_failed"`
	NextOffset       int       `json:"next_offset"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
	StartTime        time.Time `json:"start_time"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
}

// ToSummary converts ImportStats to a ProgressSummary.
func (s *ImportStats) ToSummary(state State, running bool) *ProgressSummary {
	return &ProgressSummary{
		State:            state,
		Running:          running,
		Progress:         s.Progress(),
		Target:           s.Target,
		Imported:         s.Imported,
		SkippedDuplicate: s.SkippedDuplicate,
		Failed:           s.Failed,
		Processed:        s.Processed,
		BatchesAttempted: s.BatchesAttempted,
		BatchesFailed:    s.BatchesFailed,
		NextOffset:       s.NextOffset,
		ElapsedSeconds:   s.Duration().Seconds(),
		StartTime:        s.StartTime,
		CorrelationID:    s.CorrelationID,
	}
}
