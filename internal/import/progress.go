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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// progressKey is the BadgerDB key for the last run's progress.
const progressKey = "import:igdb:progress"

// ProgressTracker persists run progress between runs.
type ProgressTracker interface {
	// Save persists the current progress.
	Save(ctx context.Context, stats *ImportStats) error

	// Load returns the last saved progress, or nil when none exists.
	Load(ctx context.Context) (*ImportStats, error)

	// Clear removes saved progress.
	Clear(ctx context.Context) error
}

// BadgerProgress implements ProgressTracker on BadgerDB.
type BadgerProgress struct {
	db *badger.DB
}

// NewBadgerProgress creates a progress tracker on db.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// Save implements ProgressTracker.
func (p *BadgerProgress) Save(_ context.Context, stats *ImportStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKey), data)
	})
}

// Load implements ProgressTracker.
func (p *BadgerProgress) Load(_ context.Context) (*ImportStats, error) {
	var (
		stats ImportStats
		found bool
	)
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &stats, nil
}

// Clear implements ProgressTracker.
func (p *BadgerProgress) Clear(_ context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// InMemoryProgress implements ProgressTracker in process memory.
type InMemoryProgress struct {
	mu    sync.Mutex
	stats *ImportStats
}

// NewInMemoryProgress creates an empty in-memory tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save implements ProgressTracker.
func (p *InMemoryProgress) Save(_ context.Context, stats *ImportStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	statsCopy := *stats
	p.stats = &statsCopy
	return nil
}

// Load implements ProgressTracker.
func (p *InMemoryProgress) Load(_ context.Context) (*ImportStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats == nil {
		return nil, nil
	}
	statsCopy := *p.stats
	return &statsCopy, nil
}

// Clear implements ProgressTracker.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = nil
	return nil
}
