// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

const sampleGameJSON = `{
	"id": 1942,
	"name": "The Witcher 3: Wild Hunt",
	"slug": "the-witcher-3-wild-hunt",
	"summary": "RPG",
	"cover": {"id": 1, "image_id": "co1wyy"},
	"screenshots": [{"image_id": "sc1"}, {"image_id": ""}, {"image_id": "sc2"}],
	"genres": [{"name": "Role-playing (RPG)"}, {"name": " "}, {"name": "Adventure"}],
	"first_release_date": 1431993600,
	"total_rating": 92.61,
	"category": 0,
	"involved_companies": [
		{"company": {"name": "WB Games"}, "developer": false, "publisher": true},
		{"company": {"name": "CD Projekt RED"}, "developer": true, "publisher": false},
		{"company": {"name": "CD Projekt"}, "developer": false, "publisher": true}
	]
}`

func TestGame_Decode(t *testing.T) {
	t.Parallel()

	var g Game
	if err := json.Unmarshal([]byte(sampleGameJSON), &g); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if g.ID != 1942 || g.Slug != "the-witcher-3-wild-hunt" {
		t.Errorf("id/slug = %d/%s", g.ID, g.Slug)
	}
	if g.CoverID() != "co1wyy" {
		t.Errorf("CoverID() = %q", g.CoverID())
	}
	if ids := g.ScreenshotIDs(); len(ids) != 2 || ids[0] != "sc1" || ids[1] != "sc2" {
		t.Errorf("ScreenshotIDs() = %v", ids)
	}
	if names := g.GenreNames(); len(names) != 2 || names[1] != "Adventure" {
		t.Errorf("GenreNames() = %v", names)
	}
	if got := g.Developer(); got != "CD Projekt RED" {
		t.Errorf("Developer() = %q", got)
	}
	if got := g.Publisher(); got != "WB Games" {
		t.Errorf("Publisher() = %q", got)
	}
	date, ok := g.ReleaseDate()
	if !ok || !date.Equal(time.Date(2015, 5, 19, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ReleaseDate() = %v, %v", date, ok)
	}
	if r, ok := g.Rating(); !ok || r != 92.61 {
		t.Errorf("Rating() = %v, %v", r, ok)
	}
	if g.Category == nil || *g.Category != 0 {
		t.Errorf("Category = %v, want 0", g.Category)
	}
}

func TestGame_MissingOptionalFields(t *testing.T) {
	t.Parallel()

	var g Game
	if err := json.Unmarshal([]byte(`{"id":5,"name":"Bare"}`), &g); err != nil {
		t.Fatal(err)
	}
	if g.CoverID() != "" || len(g.ScreenshotIDs()) != 0 || len(g.GenreNames()) != 0 {
		t.Error("missing media should produce empty values")
	}
	if g.Developer() != "" || g.Publisher() != "" {
		t.Error("missing companies should produce empty names")
	}
	if _, ok := g.ReleaseDate(); ok {
		t.Error("ReleaseDate() should be absent")
	}
	if _, ok := g.Rating(); ok {
		t.Error("Rating() should be absent")
	}
	if g.Category != nil {
		t.Error("Category should be nil")
	}
}

func TestClient_FetchByID(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "where id = 1942;") {
			_, _ = w.Write([]byte("[" + sampleGameJSON + "]"))
			return
		}
		_, _ = w.Write([]byte("[]"))
	})

	g, err := client.FetchByID(context.Background(), 1942)
	if err != nil {
		t.Fatalf("FetchByID() error = %v", err)
	}
	if g.Name != "The Witcher 3: Wild Hunt" {
		t.Errorf("Name = %q", g.Name)
	}

	if _, err := client.FetchByID(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestClient_SearchGames(t *testing.T) {
	t.Parallel()

	var sent string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = string(body)
		_, _ = w.Write([]byte("[]"))
	})

	if _, err := client.SearchGames(context.Background(), "witcher", 0); err != nil {
		t.Fatalf("SearchGames() error = %v", err)
	}
	if !strings.HasPrefix(sent, `search "witcher";fields `) {
		t.Errorf("query = %q, want search clause first", sent)
	}
	if !strings.HasSuffix(sent, "where cover != null;limit 20;") {
		t.Errorf("query = %q, want default limit", sent)
	}
	if strings.Contains(sent, "sort") {
		t.Errorf("query = %q, search must not sort", sent)
	}
}

func TestImageURLBuilder(t *testing.T) {
	t.Parallel()

	b := NewImageURLBuilder("https://images.igdb.com/igdb/image/upload/", "", "")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cover", b.Cover("co1wyy"), "https://images.igdb.com/igdb/image/upload/t_cover_big/co1wyy.jpg"},
		{"screenshot", b.Screenshot("sc1"), "https://images.igdb.com/igdb/image/upload/t_screenshot_big/sc1.jpg"},
		{"explicit size", b.URL("x", "thumb"), "https://images.igdb.com/igdb/image/upload/t_thumb/x.jpg"},
		{"empty id", b.Cover(""), ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	custom := NewImageURLBuilder("https://cdn.test", "720p", "1080p")
	if got := custom.Cover("a"); got != "https://cdn.test/t_720p/a.jpg" {
		t.Errorf("custom Cover() = %q", got)
	}
}
