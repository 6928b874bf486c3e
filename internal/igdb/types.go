// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"strings"
	"time"
)

// Game is one record from the games endpoint, limited to the expanded
// fields requested by GameFields.
type Game struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Slug              string            `json:"slug,omitempty"`
	Summary           string            `json:"summary,omitempty"`
	Cover             *Image            `json:"cover,omitempty"`
	Screenshots       []Image           `json:"screenshots,omitempty"`
	Genres            []Genre           `json:"genres,omitempty"`
	FirstReleaseDate  *int64            `json:"first_release_date,omitempty"` // epoch seconds
	TotalRating       *float64          `json:"total_rating,omitempty"`       // 0-100
	Category          *int              `json:"category,omitempty"`
	InvolvedCompanies []InvolvedCompany `json:"involved_companies,omitempty"`
}

// Image references an uploaded image by its image id.
type Image struct {
	ImageID string `json:"image_id"`
}

// Genre is an expanded genre reference.
type Genre struct {
	Name string `json:"name"`
}

// InvolvedCompany links a company to a game with its roles.
type InvolvedCompany struct {
	Company   *Company `json:"company,omitempty"`
	Developer bool     `json:"developer"`
	Publisher bool     `json:"publisher"`
}

// Company is an expanded company reference.
type Company struct {
	Name string `json:"name"`
}

// CoverID returns the cover image id, or "" when the game has no cover.
func (g *Game) CoverID() string {
	if g.Cover == nil {
		return ""
	}
	return g.Cover.ImageID
}

// ScreenshotIDs returns screenshot image ids in arrival order, skipping entries without one.
func (g *Game) ScreenshotIDs() []string {
	ids := make([]string, 0, len(g.Screenshots))
	for _, s := range g.Screenshots {
		if id := strings.TrimSpace(s.ImageID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// GenreNames returns non-empty genre names in arrival order.
func (g *Game) GenreNames() []string {
	names := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Developer returns the first company flagged as developer, or "".
func (g *Game) Developer() string {
	return g.firstCompany(func(ic InvolvedCompany) bool { return ic.Developer })
}

// Publisher returns the first company flagged as publisher, or "".
func (g *Game) Publisher() string {
	return g.firstCompany(func(ic InvolvedCompany) bool { return ic.Publisher })
}

func (g *Game) firstCompany(match func(InvolvedCompany) bool) string {
	for _, ic := range g.InvolvedCompanies {
		if match(ic) && ic.Company != nil && ic.Company.Name != "" {
			return ic.Company.Name
		}
	}
	return ""
}

// ReleaseDate returns the first release date as a UTC calendar date.
func (g *Game) ReleaseDate() (time.Time, bool) {
	if g.FirstReleaseDate == nil {
		return time.Time{}, false
	}
	t := time.Unix(*g.FirstReleaseDate, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// Rating returns the total rating when present.
func (g *Game) Rating() (float64, bool) {
	if g.TotalRating == nil {
		return 0, false
	}
	return *g.TotalRating, true
}
