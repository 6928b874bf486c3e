// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeTokens hands out tok-1, tok-2, ... advancing on every Invalidate.
type fakeTokens struct {
	mu          sync.Mutex
	generation  int
	invalidated int
	err         error
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("tok-%d", f.generation+1), nil
}

func (f *fakeTokens) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.invalidated++
	return nil
}

// countingLimiter records how often a slot was requested.
type countingLimiter struct{ waits atomic.Int32 }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits.Add(1)
	return ctx.Err()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeTokens, *countingLimiter) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &fakeTokens{}
	limiter := &countingLimiter{}
	client := NewClient(server.URL+"/v4", "client-abc", &ClientState{Tokens: tokens, Limiter: limiter},
		WithHTTPClient(server.Client()))
	return client, tokens, limiter
}

func TestClient_RequestShape(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v4/games" {
			t.Errorf("path = %s, want /v4/games", r.URL.Path)
		}
		if got := r.Header.Get("Client-ID"); got != "client-abc" {
			t.Errorf("Client-ID = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "fields name;limit 5;" {
			t.Errorf("body = %q, want normalized query", body)
		}
		_, _ = w.Write([]byte(`[{"id":1,"name":"Alpha"},{"id":2,"name":"Beta"}]`))
	})

	var out []Game
	if err := client.Do(context.Background(), "games", "fields name;\n limit 5 ;", &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(out) != 2 || out[0].Name != "Alpha" || out[1].ID != 2 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestClient_RetryOnceAfter401(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, tokens, limiter := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":7,"name":"Retry"}]`))
	})

	games, err := client.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(games) != 1 || games[0].ID != 7 {
		t.Errorf("games = %+v", games)
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2", calls.Load())
	}
	if tokens.invalidated != 1 {
		t.Errorf("invalidations = %d, want 1", tokens.invalidated)
	}
	if limiter.waits.Load() != 1 {
		t.Errorf("limiter waits = %d, want 1", limiter.waits.Load())
	}
}

func TestClient_SecondUnauthorizedIsAuthError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authorization Failure"}`))
	})

	_, err := client.Probe(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("Probe() error = %v, want AuthError", err)
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want exactly 2", calls.Load())
	}
}

func TestClient_ProtocolErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantBody   string
	}{
		{"server error", http.StatusInternalServerError, "boom", 500, "boom"},
		{"bad query", http.StatusBadRequest, `[{"title":"Syntax Error"}]`, 400, "Syntax Error"},
		{"rate limited", http.StatusTooManyRequests, "slow down", 429, "slow down"},
		{"not json", http.StatusOK, "<html>", 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchCandidates(context.Background(), 10, 0, 70)
			var perr *ProtocolError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want ProtocolError", err)
			}
			if perr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", perr.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(perr.Body, tt.wantBody) {
				t.Errorf("Body = %q, want it to contain %q", perr.Body, tt.wantBody)
			}
			if !strings.Contains(perr.Query, "limit 10;") {
				t.Errorf("Query = %q, want the sent query", perr.Query)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "id", &ClientState{Tokens: &fakeTokens{}, Limiter: NewRateLimiter(0)})
	_, err := client.Probe(context.Background())
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProtocolError", err)
	}
	if perr.StatusCode != 0 || perr.Err == nil {
		t.Errorf("transport failure should carry cause and no status: %+v", perr)
	}
}

func TestClient_EmptyResults(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"[]", ""} {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		games, err := client.FetchCandidates(context.Background(), 10, 0, 0)
		if err != nil {
			t.Errorf("body %q: error = %v", body, err)
		}
		if len(games) != 0 {
			t.Errorf("body %q: games = %d, want 0", body, len(games))
		}
	}
}

func TestClient_TokenFailurePropagates(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, tokens, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })
	tokens.err = &CredentialError{Reason: "client id and client secret are required"}

	_, err := client.Probe(context.Background())
	if !IsCredentialError(err) {
		t.Fatalf("error = %v, want CredentialError", err)
	}
	if calls.Load() != 0 {
		t.Error("no API request should be sent without a token")
	}
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Probe(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
