// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalogimport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/catalogsync/internal/catalog"
	"github.com/tomtom215/catalogsync/internal/igdb"
	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/metrics"
)

// ErrImportRunning is returned when Import is called during another run.
var ErrImportRunning = errors.New("import already in progress")

// Authenticator yields a bearer token; failure here ends the run before any batch.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
}

// CandidateSource returns one page of import candidates.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, limit, offset int, minRating float64) ([]igdb.Game, error)
}

// Store is the part of the catalog the importer writes to.
type Store interface {
	ExistsByExternalID(ctx context.Context, externalID int64) (bool, error)
	CreateEntry(ctx context.Context, e *catalog.NewEntry) (*catalog.Entry, error)
}

// RecordMapper turns an upstream record into an entry draft.
type RecordMapper interface {
	Map(g *igdb.Game) (*catalog.NewEntry, error)
}

// EntryPublisher announces committed entries.
type EntryPublisher interface {
	PublishEntryImported(ctx context.Context, entry *catalog.Entry) error
}

// PersistenceError reports a record that mapped but could not be stored.
type PersistenceError struct {
	ExternalID int64
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist game %d: %v", e.ExternalID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Importer runs import batches. One run at a time per Importer.
type Importer struct {
	auth      Authenticator
	source    CandidateSource
	store     Store
	mapper    RecordMapper
	publisher EntryPublisher
	progress  ProgressTracker
	logger    zerolog.Logger

	mu      sync.RWMutex
	running bool
	state   State
	stats   *ImportStats
}

// Option configures an Importer.
type Option func(*Importer)

// WithPublisher publishes an event per imported entry.
func WithPublisher(p EntryPublisher) Option {
	return func(i *Importer) { i.publisher = p }
}

// WithProgress saves progress after every batch.
func WithProgress(p ProgressTracker) Option {
	return func(i *Importer) { i.progress = p }
}

// NewImporter creates an importer.
func NewImporter(auth Authenticator, source CandidateSource, store Store, mapper RecordMapper, opts ...Option) *Importer {
	i := &Importer{
		auth:   auth,
		source: source,
		store:  store,
		mapper: mapper,
		state:  StateIdle,
		logger: logging.WithComponent("import"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// outcome of one record.
type outcome int

const (
	outcomeImported outcome = iota
	outcomeDuplicate
)

// Import runs one import. The returned stats are always non-nil.
//
// Errors end the run early only for invalid parameters, credential
// failures, an authentication failure before the first successful page,
// or cancellation of ctx. Page and record failures are counted instead.
func (i *Importer) Import(ctx context.Context, params RunParams) (*ImportStats, error) {
	if err := params.Validate(); err != nil {
		return &ImportStats{}, err
	}

	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return i.GetStats(), ErrImportRunning
	}
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	ctx = logging.ContextWithLogger(ctx, i.logger)
	i.running = true
	i.state = StateAuthenticating
	i.stats = &ImportStats{
		Target:        params.Count,
		MinRating:     params.MinRating,
		StartOffset:   params.Offset,
		NextOffset:    params.Offset,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		StartTime:     time.Now(),
	}
	i.mu.Unlock()
	metrics.SetImportRunning(true)

	err := i.run(ctx, params)

	i.mu.Lock()
	i.running = false
	i.state = StateCompleted
	i.stats.EndTime = time.Now()
	stats := *i.stats
	i.mu.Unlock()

	metrics.SetImportRunning(false)
	metrics.RecordImportRun(stats.Duration(), err)

	log := logging.Ctx(ctx)
	if err != nil {
		log.Error().Err(err).
			Int("imported", stats.Imported).
			Int("processed", stats.Processed).
			Msg("Import ended early")
		return &stats, err
	}
	log.Info().
		Int("imported", stats.Imported).
		Int("skipped_duplicate", stats.SkippedDuplicate).
		Int("failed", stats.Failed).
		Int("processed", stats.Processed).
		Int("batches_attempted", stats.BatchesAttempted).
		Int("batches_failed", stats.BatchesFailed).
		Int("next_offset", stats.NextOffset).
		Dur("duration", stats.Duration()).
		Msg("Import completed")
	return &stats, nil
}

func (i *Importer) run(ctx context.Context, params RunParams) error {
	log := logging.Ctx(ctx)

	if _, err := i.auth.Token(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	offset := params.Offset
	if params.Resume {
		offset = i.resumeOffset(ctx, offset)
		i.update(func(s *ImportStats) {
			s.StartOffset = offset
			s.NextOffset = offset
		})
	}

	batchSize := params.EffectiveBatchSize()
	totalBatches := params.TotalBatches()
	processed := 0
	fetchedAny := false

	log.Info().
		Int("count", params.Count).
		Int("offset", offset).
		Float64("min_rating", params.MinRating).
		Int("batch_size", batchSize).
		Int("total_batches", totalBatches).
		Msg("Starting import")

	for batch := 0; batch < totalBatches && processed < params.Count; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		limit := min(batchSize, params.Count-processed)
		i.setState(StateFetching)
		i.update(func(s *ImportStats) { s.BatchesAttempted++ })

		page, err := i.source.FetchCandidates(ctx, limit, offset, params.MinRating)
		if err != nil {
			if fatal := i.fatalFetchError(ctx, err, fetchedAny); fatal != nil {
				return fatal
			}
			log.Warn().Err(err).
				Int("batch", batch+1).
				Int("total_batches", totalBatches).
				Int("offset", offset).
				Msg("Batch fetch failed, skipping")
			metrics.RecordImportBatch(metrics.BatchFailed)
			offset += batchSize
			i.update(func(s *ImportStats) {
				s.BatchesFailed++
				s.NextOffset = offset
			})
			i.saveProgress(ctx)
			continue
		}
		fetchedAny = true

		if len(page) == 0 {
			metrics.RecordImportBatch(metrics.BatchEmpty)
			log.Info().Int("offset", offset).Msg("Upstream exhausted")
			break
		}
		metrics.RecordImportBatch(metrics.BatchFetched)

		i.setState(StateProcessing)
		for r := range page {
			if processed >= params.Count {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := i.importOne(ctx, &page[r])
			if err != nil {
				metrics.RecordImportRecord(metrics.OutcomeFailed)
				log.Warn().Err(err).
					Int64("external_id", page[r].ID).
					Str("name", page[r].Name).
					Msg("Record import failed")
				i.update(func(s *ImportStats) { s.Failed++ })
				continue
			}

			processed++
			i.update(func(s *ImportStats) {
				s.Processed++
				if result == outcomeDuplicate {
					s.SkippedDuplicate++
				} else {
					s.Imported++
				}
			})
		}

		offset += len(page)
		i.update(func(s *ImportStats) { s.NextOffset = offset })
		i.saveProgress(ctx)

		stats := i.GetStats()
		log.Info().
			Int("batch", batch+1).
			Int("total_batches", totalBatches).
			Float64("progress_percent", stats.Progress()).
			Int("imported", stats.Imported).
			Int("skipped_duplicate", stats.SkippedDuplicate).
			Int("failed", stats.Failed).
			Msg("Import progress")
	}
	return nil
}

// fatalFetchError returns non-nil when a fetch failure must end the run.
// Credential and auth failures are fatal only before the first page arrives;
// after that they skip the batch like any other fetch failure.
func (i *Importer) fatalFetchError(ctx context.Context, err error, fetchedAny bool) error {
	switch {
	case igdb.IsCredentialError(err) && !fetchedAny:
		return err
	case igdb.IsAuthError(err) && !fetchedAny:
		return fmt.Errorf("authentication rejected before first page: %w", err)
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return nil
}

// importOne stores a single record. A record already in the catalog is a
// duplicate, not an error.
func (i *Importer) importOne(ctx context.Context, g *igdb.Game) (outcome, error) {
	exists, err := i.store.ExistsByExternalID(ctx, g.ID)
	if err != nil {
		return 0, &PersistenceError{ExternalID: g.ID, Err: err}
	}
	if exists {
		metrics.RecordImportRecord(metrics.OutcomeDuplicate)
		return outcomeDuplicate, nil
	}

	draft, err := i.mapper.Map(g)
	if err != nil {
		var mapErr *MappingError
		if errors.As(err, &mapErr) {
			return 0, err
		}
		return 0, &MappingError{ExternalID: g.ID, Name: g.Name, Err: err}
	}

	entry, err := i.store.CreateEntry(ctx, draft)
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicateExternalID) {
			metrics.RecordImportRecord(metrics.OutcomeDuplicate)
			return outcomeDuplicate, nil
		}
		return 0, &PersistenceError{ExternalID: g.ID, Err: err}
	}
	metrics.RecordImportRecord(metrics.OutcomeImported)

	logging.Ctx(ctx).Debug().
		Int64("external_id", g.ID).
		Int64("entry_id", entry.ID).
		Str("slug", entry.Slug).
		Msg("Imported entry")

	if i.publisher != nil {
		if err := i.publisher.PublishEntryImported(ctx, entry); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("entry_id", entry.ID).Msg("Failed to publish entry imported event")
		}
	}
	return outcomeImported, nil
}

func (i *Importer) resumeOffset(ctx context.Context, fallback int) int {
	if i.progress == nil {
		return fallback
	}
	saved, err := i.progress.Load(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to load import progress, using configured offset")
		return fallback
	}
	if saved == nil {
		return fallback
	}
	logging.Ctx(ctx).Info().Int("offset", saved.NextOffset).Msg("Resuming import from saved offset")
	return saved.NextOffset
}

func (i *Importer) saveProgress(ctx context.Context) {
	if i.progress == nil {
		return
	}
	if err := i.progress.Save(ctx, i.GetStats()); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save progress")
	}
}

func (i *Importer) update(fn func(s *ImportStats)) {
	i.mu.Lock()
	fn(i.stats)
	i.mu.Unlock()
}

func (i *Importer) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// State returns the current state.
func (i *Importer) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// GetStats returns a copy of the current or last run's statistics.
func (i *Importer) GetStats() *ImportStats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stats == nil {
		return &ImportStats{}
	}
	stats := *i.stats
	return &stats
}

// IsRunning reports whether a run is in progress.
func (i *Importer) IsRunning() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.running
}

// Summary returns the status view of the current or last run.
func (i *Importer) Summary() *ProgressSummary {
	i.mu.RLock()
	defer i.mu.RUnlock()
	stats := ImportStats{}
	if i.stats != nil {
		stats = *i.stats
	}
	return stats.ToSummary(i.state, i.running)
}
