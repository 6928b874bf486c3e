// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	catalogimport "github.com/tomtom215/catalogsync/internal/import"
	"github.com/tomtom215/catalogsync/internal/logging"
)

// fakeRunner records the parameters of every run.
type fakeRunner struct {
	mu      sync.Mutex
	runs    []catalogimport.RunParams
	ids     []string
	running bool
	err     error
	ran     chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan struct{}, 16)}
}

func (f *fakeRunner) Import(ctx context.Context, params catalogimport.RunParams) (*catalogimport.ImportStats, error) {
	f.mu.Lock()
	f.runs = append(f.runs, params)
	f.ids = append(f.ids, logging.CorrelationIDFromContext(ctx))
	err := f.err
	f.mu.Unlock()
	f.ran <- struct{}{}
	return &catalogimport.ImportStats{Target: params.Count}, err
}

func (f *fakeRunner) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeRunner) snapshot() []catalogimport.RunParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalogimport.RunParams{}, f.runs...)
}

func (f *fakeRunner) waitRuns(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("saw %d runs, want %d", i, n)
		}
	}
}

var defaultParams = catalogimport.RunParams{Count: 100, MinRating: 60, BatchSize: 50}

var _ suture.Service = (*ImportService)(nil)

func serveInBackground(t *testing.T, svc *ImportService) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return cancel, errCh
}

func TestImportServiceRunOnStartup(t *testing.T) {
	runner := newFakeRunner()
	svc := NewImportService(runner, defaultParams, 0, true)

	cancel, errCh := serveInBackground(t, svc)
	runner.waitRuns(t, 1)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if runs := runner.snapshot(); len(runs) != 1 || runs[0] != defaultParams {
		t.Errorf("runs = %+v, want one run with defaults", runs)
	}
	if runner.ids[0] == "" {
		t.Error("run had no correlation id")
	}

	// A restart does not repeat the startup run.
	cancel2, errCh2 := serveInBackground(t, svc)
	time.Sleep(50 * time.Millisecond)
	cancel2()
	<-errCh2
	if n := len(runner.snapshot()); n != 1 {
		t.Errorf("runs after restart = %d, want 1", n)
	}
}

func TestImportServiceSchedule(t *testing.T) {
	runner := newFakeRunner()
	svc := NewImportService(runner, defaultParams, 20*time.Millisecond, false)

	cancel, errCh := serveInBackground(t, svc)
	runner.waitRuns(t, 2)
	cancel()
	<-errCh
}

func TestImportServiceTrigger(t *testing.T) {
	runner := newFakeRunner()
	svc := NewImportService(runner, defaultParams, 0, false)

	cancel, errCh := serveInBackground(t, svc)
	defer func() {
		cancel()
		<-errCh
	}()

	custom := catalogimport.RunParams{Count: 5, BatchSize: 5, Offset: 10}
	if err := svc.Trigger(custom); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	runner.waitRuns(t, 1)

	if runs := runner.snapshot(); runs[0] != custom {
		t.Errorf("run params = %+v, want %+v", runs[0], custom)
	}
}

func TestImportServiceTriggerRejections(t *testing.T) {
	t.Run("invalid params", func(t *testing.T) {
		svc := NewImportService(newFakeRunner(), defaultParams, 0, false)
		if err := svc.Trigger(catalogimport.RunParams{Count: 0, BatchSize: 50}); err == nil {
			t.Error("Trigger() accepted count 0")
		}
	})

	t.Run("run in progress", func(t *testing.T) {
		runner := newFakeRunner()
		runner.running = true
		svc := NewImportService(runner, defaultParams, 0, false)
		if err := svc.Trigger(defaultParams); !errors.Is(err, catalogimport.ErrImportRunning) {
			t.Errorf("Trigger() error = %v, want ErrImportRunning", err)
		}
	})

	t.Run("already queued", func(t *testing.T) {
		svc := NewImportService(newFakeRunner(), defaultParams, 0, false)
		// Not serving, so the first trigger stays queued.
		if err := svc.Trigger(defaultParams); err != nil {
			t.Fatalf("first Trigger() error = %v", err)
		}
		if err := svc.Trigger(defaultParams); !errors.Is(err, ErrTriggerPending) {
			t.Errorf("second Trigger() error = %v, want ErrTriggerPending", err)
		}
	})
}

func TestImportServiceFailedRunKeepsServing(t *testing.T) {
	runner := newFakeRunner()
	runner.err = errors.New("upstream down")
	svc := NewImportService(runner, defaultParams, 0, true)

	cancel, errCh := serveInBackground(t, svc)
	runner.waitRuns(t, 1)

	if err := svc.Trigger(defaultParams); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	runner.waitRuns(t, 1)

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestImportServiceString(t *testing.T) {
	if got := NewImportService(newFakeRunner(), defaultParams, 0, false).String(); got != "igdb-import" {
		t.Errorf("String() = %q, want igdb-import", got)
	}
}
