// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalogimport

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/catalogsync/internal/catalog"
	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/igdb"
)

type fakeAuth struct {
	err error
}

func (a *fakeAuth) Token(context.Context) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "token", nil
}

type fetchCall struct {
	limit, offset int
	minRating     float64
}

// fakeSource serves pages out of games unless fetch overrides it.
type fakeSource struct {
	mu    sync.Mutex
	games []igdb.Game
	fetch func(call int, limit, offset int) ([]igdb.Game, error)
	calls []fetchCall
}

func (s *fakeSource) FetchCandidates(_ context.Context, limit, offset int, minRating float64) ([]igdb.Game, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fetchCall{limit: limit, offset: offset, minRating: minRating})
	n := len(s.calls)
	s.mu.Unlock()

	if s.fetch != nil {
		return s.fetch(n, limit, offset)
	}
	if offset >= len(s.games) {
		return nil, nil
	}
	end := min(offset+limit, len(s.games))
	return append([]igdb.Game{}, s.games[offset:end]...), nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	byID      map[int64]*catalog.Entry
	createErr func(e *catalog.NewEntry) error
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[int64]*catalog.Entry)}
}

func (s *memStore) ExistsByExternalID(_ context.Context, externalID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[externalID]
	return ok, nil
}

func (s *memStore) CreateEntry(_ context.Context, e *catalog.NewEntry) (*catalog.Entry, error) {
	if s.createErr != nil {
		if err := s.createErr(e); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry := &catalog.Entry{ID: s.nextID, ExternalID: e.ExternalID, Slug: e.Slug, Title: e.Title}
	s.byID[*e.ExternalID] = entry
	return entry, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []int64
	err     error
}

func (p *recordingPublisher) PublishEntryImported(_ context.Context, entry *catalog.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry.ID)
	return p.err
}

func makeGames(from, n int) []igdb.Game {
	games := make([]igdb.Game, 0, n)
	for i := from; i < from+n; i++ {
		games = append(games, igdb.Game{ID: int64(i), Name: fmt.Sprintf("Game %d", i)})
	}
	return games
}

func newTestImporter(t *testing.T, source CandidateSource, store Store, opts ...Option) *Importer {
	t.Helper()
	return NewImporter(&fakeAuth{}, source, store, newTestMapper(t, NewRandSource(11)), opts...)
}

func openSQLiteStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(context.Background(), &config.DatabaseConfig{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("catalog.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func params(count, batch int) RunParams {
	return RunParams{Count: count, BatchSize: batch}
}

func TestImportReimportIsIdempotent(t *testing.T) {
	store := openSQLiteStore(t)
	source := &fakeSource{games: makeGames(1, 3)}
	importer := newTestImporter(t, source, store)
	ctx := context.Background()

	first, err := importer.Import(ctx, params(3, 50))
	if err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	if first.Imported != 3 || first.SkippedDuplicate != 0 {
		t.Errorf("first run imported/duplicate = %d/%d, want 3/0", first.Imported, first.SkippedDuplicate)
	}

	second, err := importer.Import(ctx, params(3, 50))
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if second.Imported != 0 || second.SkippedDuplicate != 3 {
		t.Errorf("second run imported/duplicate = %d/%d, want 0/3", second.Imported, second.SkippedDuplicate)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestImportSlugCollision(t *testing.T) {
	store := openSQLiteStore(t)
	source := &fakeSource{games: []igdb.Game{
		{ID: 1, Name: "X", Slug: "x"},
		{ID: 2, Name: "X", Slug: "x"},
	}}
	importer := newTestImporter(t, source, store)
	ctx := context.Background()

	stats, err := importer.Import(ctx, params(2, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 2 {
		t.Fatalf("Imported = %d, want 2", stats.Imported)
	}

	for id, want := range map[int64]string{1: "x", 2: "x-1"} {
		entry, err := store.GetByExternalID(ctx, id)
		if err != nil {
			t.Fatalf("GetByExternalID(%d) error = %v", id, err)
		}
		if entry.Slug != want {
			t.Errorf("entry %d slug = %q, want %q", id, entry.Slug, want)
		}
	}
}

func TestImportRecordFailureIsIsolated(t *testing.T) {
	games := makeGames(1, 5)
	games[2].Name = "" // unmappable

	store := newMemStore()
	importer := newTestImporter(t, &fakeSource{games: games}, store)

	stats, err := importer.Import(context.Background(), params(5, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 4 || stats.Failed != 1 {
		t.Errorf("imported/failed = %d/%d, want 4/1", stats.Imported, stats.Failed)
	}
	if stats.NextOffset != 5 {
		t.Errorf("NextOffset = %d, want 5", stats.NextOffset)
	}
	if ok, _ := store.ExistsByExternalID(context.Background(), 3); ok {
		t.Error("unmappable record was stored")
	}
}

func TestImportPersistenceFailureIsIsolated(t *testing.T) {
	store := newMemStore()
	store.createErr = func(e *catalog.NewEntry) error {
		if *e.ExternalID == 2 {
			return errors.New("disk full")
		}
		return nil
	}
	importer := newTestImporter(t, &fakeSource{games: makeGames(1, 3)}, store)

	stats, err := importer.Import(context.Background(), params(3, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 2 || stats.Failed != 1 {
		t.Errorf("imported/failed = %d/%d, want 2/1", stats.Imported, stats.Failed)
	}
}

func TestImportDuplicateRaceCountsAsDuplicate(t *testing.T) {
	store := newMemStore()
	store.createErr = func(*catalog.NewEntry) error {
		return fmt.Errorf("insert: %w", catalog.ErrDuplicateExternalID)
	}
	importer := newTestImporter(t, &fakeSource{games: makeGames(1, 2)}, store)

	stats, err := importer.Import(context.Background(), params(2, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.SkippedDuplicate != 2 || stats.Failed != 0 || stats.Processed != 2 {
		t.Errorf("duplicate/failed/processed = %d/%d/%d, want 2/0/2",
			stats.SkippedDuplicate, stats.Failed, stats.Processed)
	}
}

func TestImportTerminatesWhenEveryFetchFails(t *testing.T) {
	source := &fakeSource{fetch: func(int, int, int) ([]igdb.Game, error) {
		return nil, &igdb.ProtocolError{Endpoint: igdb.EndpointGames, StatusCode: 503}
	}}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(context.Background(), params(1000, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got := source.callCount(); got != 20 {
		t.Errorf("fetch attempts = %d, want 20", got)
	}
	if stats.BatchesAttempted != 20 || stats.BatchesFailed != 20 {
		t.Errorf("batches attempted/failed = %d/%d, want 20/20", stats.BatchesAttempted, stats.BatchesFailed)
	}
	if stats.Processed != 0 {
		t.Errorf("Processed = %d, want 0", stats.Processed)
	}
	if stats.NextOffset != 1000 {
		t.Errorf("NextOffset = %d, want 1000", stats.NextOffset)
	}
}

func TestImportSkipsFailedBatch(t *testing.T) {
	games := makeGames(1, 150)
	source := &fakeSource{}
	source.fetch = func(call, limit, offset int) ([]igdb.Game, error) {
		if call == 2 {
			return nil, &igdb.ProtocolError{Endpoint: igdb.EndpointGames, StatusCode: 500}
		}
		end := min(offset+limit, len(games))
		return games[offset:end], nil
	}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(context.Background(), params(100, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.BatchesFailed != 1 || stats.Imported != 50 {
		t.Errorf("batches failed/imported = %d/%d, want 1/50", stats.BatchesFailed, stats.Imported)
	}
	// Second batch skipped by a full batch size; no third batch in a 2-batch run.
	wantOffsets := []int{0, 50}
	var gotOffsets []int
	for _, c := range source.calls {
		gotOffsets = append(gotOffsets, c.offset)
	}
	if !reflect.DeepEqual(gotOffsets, wantOffsets) {
		t.Errorf("fetch offsets = %v, want %v", gotOffsets, wantOffsets)
	}
	if stats.NextOffset != 100 {
		t.Errorf("NextOffset = %d, want 100", stats.NextOffset)
	}
}

func TestImportLimitShrinksToRemainingTarget(t *testing.T) {
	source := &fakeSource{games: makeGames(1, 500)}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(context.Background(), RunParams{Count: 120, BatchSize: 50, MinRating: 60})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 120 {
		t.Errorf("Imported = %d, want 120", stats.Imported)
	}

	want := []fetchCall{{50, 0, 60}, {50, 50, 60}, {20, 100, 60}}
	if !reflect.DeepEqual(source.calls, want) {
		t.Errorf("fetch calls = %+v, want %+v", source.calls, want)
	}
}

func TestImportBatchSizeCappedAtUpstreamMax(t *testing.T) {
	source := &fakeSource{games: makeGames(1, 1000)}
	importer := newTestImporter(t, source, newMemStore())

	if _, err := importer.Import(context.Background(), params(600, 900)); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	for _, c := range source.calls {
		if c.limit > igdb.MaxLimit {
			t.Errorf("fetch limit %d exceeds %d", c.limit, igdb.MaxLimit)
		}
	}
	if len(source.calls) != 2 {
		t.Errorf("fetch calls = %d, want 2", len(source.calls))
	}
}

func TestImportStopsOnEmptyPage(t *testing.T) {
	source := &fakeSource{games: makeGames(1, 30)}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(context.Background(), params(100, 25))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 30 {
		t.Errorf("Imported = %d, want 30", stats.Imported)
	}
	// 0..25, 25..30, then an empty page at 30.
	if got := source.callCount(); got != 3 {
		t.Errorf("fetch attempts = %d, want 3", got)
	}
	if stats.NextOffset != 30 {
		t.Errorf("NextOffset = %d, want 30", stats.NextOffset)
	}
}

func TestImportAuthErrorBeforeFirstPageIsFatal(t *testing.T) {
	source := &fakeSource{fetch: func(int, int, int) ([]igdb.Game, error) {
		return nil, &igdb.AuthError{Endpoint: igdb.EndpointGames}
	}}
	importer := newTestImporter(t, source, newMemStore())

	_, err := importer.Import(context.Background(), params(100, 50))
	if !igdb.IsAuthError(err) {
		t.Fatalf("Import() error = %v, want AuthError", err)
	}
	if got := source.callCount(); got != 1 {
		t.Errorf("fetch attempts = %d, want 1", got)
	}
	if importer.IsRunning() {
		t.Error("IsRunning() = true after fatal error")
	}
}

func TestImportAuthErrorAfterFirstPageSkipsBatch(t *testing.T) {
	games := makeGames(1, 100)
	source := &fakeSource{}
	source.fetch = func(call, limit, offset int) ([]igdb.Game, error) {
		if call == 2 {
			return nil, &igdb.AuthError{Endpoint: igdb.EndpointGames}
		}
		return games[offset:min(offset+limit, len(games))], nil
	}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(context.Background(), params(100, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.BatchesFailed != 1 || stats.Imported != 50 {
		t.Errorf("batches failed/imported = %d/%d, want 1/50", stats.BatchesFailed, stats.Imported)
	}
}

func TestImportCredentialErrorIsFatal(t *testing.T) {
	t.Run("from authenticator", func(t *testing.T) {
		source := &fakeSource{games: makeGames(1, 10)}
		auth := &fakeAuth{err: &igdb.CredentialError{Reason: "missing client id"}}
		importer := NewImporter(auth, source, newMemStore(), newTestMapper(t, NewRandSource(1)))

		stats, err := importer.Import(context.Background(), params(10, 5))
		if !igdb.IsCredentialError(err) {
			t.Fatalf("Import() error = %v, want CredentialError", err)
		}
		if source.callCount() != 0 {
			t.Errorf("fetch attempts = %d, want 0", source.callCount())
		}
		if stats == nil || stats.BatchesAttempted != 0 {
			t.Errorf("stats = %+v, want zero batches", stats)
		}
	})

	t.Run("from fetch before first page", func(t *testing.T) {
		source := &fakeSource{}
		source.fetch = func(call, limit, offset int) ([]igdb.Game, error) {
			return nil, &igdb.CredentialError{Reason: "revoked", StatusCode: 400}
		}
		importer := newTestImporter(t, source, newMemStore())

		_, err := importer.Import(context.Background(), params(10, 5))
		if !igdb.IsCredentialError(err) {
			t.Fatalf("Import() error = %v, want CredentialError", err)
		}
		if source.callCount() != 1 {
			t.Errorf("fetch attempts = %d, want 1", source.callCount())
		}
	})
}

func TestImportCredentialErrorAfterFirstPageSkipsBatch(t *testing.T) {
	games := makeGames(1, 15)
	source := &fakeSource{}
	source.fetch = func(call, limit, offset int) ([]igdb.Game, error) {
		if call == 2 {
			return nil, &igdb.CredentialError{Reason: "token request rejected", StatusCode: 503}
		}
		return games[offset:min(offset+limit, len(games))], nil
	}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(context.Background(), params(10, 5))
	if err != nil {
		t.Fatalf("Import() error = %v, want nil", err)
	}
	if stats.BatchesAttempted != 2 || stats.BatchesFailed != 1 {
		t.Errorf("batches attempted/failed = %d/%d, want 2/1", stats.BatchesAttempted, stats.BatchesFailed)
	}
	if stats.Imported != 5 {
		t.Errorf("Imported = %d, want 5", stats.Imported)
	}
	if stats.NextOffset != 10 {
		t.Errorf("NextOffset = %d, want 10", stats.NextOffset)
	}
	if importer.State() != StateCompleted {
		t.Errorf("State() = %s, want %s", importer.State(), StateCompleted)
	}
}

func TestImportResumeFromSavedOffset(t *testing.T) {
	progress := NewInMemoryProgress()
	ctx := context.Background()
	if err := progress.Save(ctx, &ImportStats{NextOffset: 120}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	source := &fakeSource{games: makeGames(1, 300)}
	importer := newTestImporter(t, source, newMemStore(), WithProgress(progress))

	stats, err := importer.Import(ctx, RunParams{Count: 10, BatchSize: 10, Offset: 0, Resume: true})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if source.calls[0].offset != 120 {
		t.Errorf("first fetch offset = %d, want 120", source.calls[0].offset)
	}
	if stats.StartOffset != 120 || stats.NextOffset != 130 {
		t.Errorf("start/next offset = %d/%d, want 120/130", stats.StartOffset, stats.NextOffset)
	}

	saved, err := progress.Load(ctx)
	if err != nil || saved == nil {
		t.Fatalf("Load() = %v, %v", saved, err)
	}
	if saved.NextOffset != 130 {
		t.Errorf("saved NextOffset = %d, want 130", saved.NextOffset)
	}
}

func TestImportResumeWithoutSavedProgressUsesOffset(t *testing.T) {
	source := &fakeSource{games: makeGames(1, 100)}
	importer := newTestImporter(t, source, newMemStore(), WithProgress(NewInMemoryProgress()))

	if _, err := importer.Import(context.Background(), RunParams{Count: 5, BatchSize: 5, Offset: 40, Resume: true}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if source.calls[0].offset != 40 {
		t.Errorf("first fetch offset = %d, want 40", source.calls[0].offset)
	}
}

func TestImportPublishesImportedEntries(t *testing.T) {
	store := newMemStore()
	store.byID[2] = &catalog.Entry{ID: 99}
	publisher := &recordingPublisher{err: errors.New("broker down")}
	importer := newTestImporter(t, &fakeSource{games: makeGames(1, 3)}, store, WithPublisher(publisher))

	stats, err := importer.Import(context.Background(), params(3, 50))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 2 || stats.SkippedDuplicate != 1 {
		t.Errorf("imported/duplicate = %d/%d, want 2/1", stats.Imported, stats.SkippedDuplicate)
	}
	if len(publisher.entries) != 2 {
		t.Errorf("published %d events, want 2", len(publisher.entries))
	}
}

func TestImportRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	source := &fakeSource{fetch: func(int, int, int) ([]igdb.Game, error) {
		once.Do(func() { close(entered) })
		<-release
		return nil, nil
	}}
	importer := newTestImporter(t, source, newMemStore())

	done := make(chan error, 1)
	go func() {
		_, err := importer.Import(context.Background(), params(10, 5))
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never fetched")
	}

	if !importer.IsRunning() {
		t.Error("IsRunning() = false during run")
	}
	if state := importer.State(); state != StateFetching {
		t.Errorf("State() = %s, want %s", state, StateFetching)
	}
	if _, err := importer.Import(context.Background(), params(10, 5)); !errors.Is(err, ErrImportRunning) {
		t.Errorf("second Import() error = %v, want ErrImportRunning", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	if importer.State() != StateCompleted {
		t.Errorf("State() = %s after run, want %s", importer.State(), StateCompleted)
	}
}

func TestImportStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	games := makeGames(1, 100)
	source := &fakeSource{}
	source.fetch = func(_, limit, offset int) ([]igdb.Game, error) {
		cancel()
		return games[offset:min(offset+limit, len(games))], nil
	}
	importer := newTestImporter(t, source, newMemStore())

	stats, err := importer.Import(ctx, params(100, 10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Import() error = %v, want context.Canceled", err)
	}
	if source.callCount() != 1 {
		t.Errorf("fetch attempts = %d, want 1", source.callCount())
	}
	if stats.Processed != 0 {
		t.Errorf("Processed = %d, want 0", stats.Processed)
	}
}

func TestImportInvalidParams(t *testing.T) {
	importer := newTestImporter(t, &fakeSource{}, newMemStore())

	tests := []struct {
		name   string
		params RunParams
	}{
		{"zero count", RunParams{Count: 0, BatchSize: 50}},
		{"zero batch", RunParams{Count: 10, BatchSize: 0}},
		{"negative offset", RunParams{Count: 10, BatchSize: 50, Offset: -1}},
		{"rating above 100", RunParams{Count: 10, BatchSize: 50, MinRating: 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := importer.Import(context.Background(), tt.params); err == nil {
				t.Error("Import() accepted invalid params")
			}
		})
	}
}

func TestImporterSummary(t *testing.T) {
	importer := newTestImporter(t, &fakeSource{games: makeGames(1, 4)}, newMemStore())

	if s := importer.Summary(); s.State != StateIdle || s.Running {
		t.Errorf("initial summary = %+v, want idle", s)
	}

	if _, err := importer.Import(context.Background(), params(4, 2)); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	s := importer.Summary()
	if s.State != StateCompleted || s.Imported != 4 || s.Progress != 100 {
		t.Errorf("summary = %+v, want completed with 4 imported", s)
	}
	if s.CorrelationID == "" {
		t.Error("summary has no correlation id")
	}
}
