// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/catalogsync/internal/metrics"
)

// attachGenres links genres to an entry in the given order, creating unknown ones.
// Repeated slugs are linked once.
func (s *Store) attachGenres(ctx context.Context, q queryer, entryID int64, refs []GenreRef) ([]Genre, error) {
	genres := make([]Genre, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		if _, dup := seen[ref.Slug]; dup {
			continue
		}
		seen[ref.Slug] = struct{}{}

		g, err := s.getOrCreateGenre(ctx, q, ref)
		if err != nil {
			return nil, err
		}
		if _, err := q.ExecContext(ctx,
			s.q(`INSERT INTO entry_genres (entry_id, genre_id, position) VALUES (?, ?, ?)`),
			entryID, g.ID, len(genres)); err != nil {
			return nil, fmt.Errorf("failed to link genre %q: %w", ref.Slug, err)
		}
		genres = append(genres, g)
	}
	return genres, nil
}

// getOrCreateGenre is idempotent: the unique slug makes concurrent inserts collapse to one row.
func (s *Store) getOrCreateGenre(ctx context.Context, q queryer, ref GenreRef) (Genre, error) {
	if _, err := q.ExecContext(ctx,
		s.q(`INSERT INTO genres (name, slug) VALUES (?, ?) ON CONFLICT (slug) DO NOTHING`),
		ref.Name, ref.Slug); err != nil {
		return Genre{}, fmt.Errorf("failed to create genre %q: %w", ref.Slug, err)
	}

	g := Genre{Slug: ref.Slug}
	if err := q.QueryRowContext(ctx, s.q(`SELECT id, name FROM genres WHERE slug = ?`), ref.Slug).
		Scan(&g.ID, &g.Name); err != nil {
		return Genre{}, fmt.Errorf("failed to load genre %q: %w", ref.Slug, err)
	}
	return g, nil
}

func (s *Store) entryGenres(ctx context.Context, entryID int64) ([]Genre, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT g.id, g.name, g.slug
		FROM entry_genres eg JOIN genres g ON g.id = eg.genre_id
		WHERE eg.entry_id = ? ORDER BY eg.position`), entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry genres: %w", err)
	}
	defer rows.Close()
	return scanGenres(rows)
}

// ListGenres returns every genre ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]Genre, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug FROM genres ORDER BY name`)
	if err != nil {
		metrics.RecordDBQuery("list_genres", time.Since(start), err)
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	genres, err := scanGenres(rows)
	metrics.RecordDBQuery("list_genres", time.Since(start), err)
	return genres, err
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanGenres(rows rowScanner) ([]Genre, error) {
	genres := []Genre{}
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}
