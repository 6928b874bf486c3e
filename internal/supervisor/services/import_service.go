// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	catalogimport "github.com/tomtom215/catalogsync/internal/import"
	"github.com/tomtom215/catalogsync/internal/logging"
)

// ErrTriggerPending is returned by Trigger when a run is already queued.
var ErrTriggerPending = errors.New("an import run is already queued")

// ImportRunner is the importer as seen by the service.
type ImportRunner interface {
	Import(ctx context.Context, params catalogimport.RunParams) (*catalogimport.ImportStats, error)
	IsRunning() bool
}

// ImportService runs imports on a schedule and on demand.
//
// Runs execute inside Serve, one at a time. A scheduled tick that arrives
// while a run is in progress is dropped by the ticker. Failed runs are
// logged and never returned, so a bad upstream does not put the service
// into restart backoff.
type ImportService struct {
	runner       ImportRunner
	defaults     catalogimport.RunParams
	interval     time.Duration
	runOnStartup bool
	trigger      chan catalogimport.RunParams
	started      atomic.Bool
	name         string
}

// NewImportService creates the service. interval <= 0 disables scheduled runs.
func NewImportService(runner ImportRunner, defaults catalogimport.RunParams, interval time.Duration, runOnStartup bool) *ImportService {
	return &ImportService{
		runner:       runner,
		defaults:     defaults,
		interval:     interval,
		runOnStartup: runOnStartup,
		trigger:      make(chan catalogimport.RunParams, 1),
		name:         "igdb-import",
	}
}

// Defaults returns the parameters used for scheduled runs.
func (s *ImportService) Defaults() catalogimport.RunParams {
	return s.defaults
}

// Trigger queues a run with params. It does not wait for the run.
func (s *ImportService) Trigger(params catalogimport.RunParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if s.runner.IsRunning() {
		return catalogimport.ErrImportRunning
	}
	select {
	case s.trigger <- params:
		return nil
	default:
		return ErrTriggerPending
	}
}

// Serve implements suture.Service.
func (s *ImportService) Serve(ctx context.Context) error {
	// Startup runs happen once per process, not once per restart.
	if s.runOnStartup && s.started.CompareAndSwap(false, true) {
		s.run(ctx, s.defaults, "startup")
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
		logging.Info().Dur("interval", s.interval).Msg("Scheduled imports enabled")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.run(ctx, s.defaults, "schedule")
		case params := <-s.trigger:
			s.run(ctx, params, "trigger")
		}
	}
}

func (s *ImportService) run(ctx context.Context, params catalogimport.RunParams, reason string) {
	runCtx := logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(runCtx)
	log.Info().Str("reason", reason).Int("count", params.Count).Msg("Starting import run")

	stats, err := s.runner.Import(runCtx, params)
	switch {
	case err == nil:
		return
	case ctx.Err() != nil:
		log.Info().Msg("Import canceled due to shutdown")
	case errors.Is(err, catalogimport.ErrImportRunning):
		log.Warn().Str("reason", reason).Msg("Import skipped, another run is in progress")
	default:
		ev := log.Error().Err(err).Str("reason", reason)
		if stats != nil {
			ev = ev.Int("imported", stats.Imported).Int("processed", stats.Processed)
		}
		ev.Msg("Import run failed")
	}
}

// String implements fmt.Stringer for suture's event log.
func (s *ImportService) String() string {
	return s.name
}
