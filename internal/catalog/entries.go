// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
entries.go - Entry Persistence

CreateEntry is the only writer. One call is one transaction:

 1. reject an external id that is already stored
 2. resolve the first free slug among base, base-1, base-2, ...
 3. insert the entry row
 4. get-or-create each genre and link it with its arrival position
 5. insert screenshots with their arrival position
 6. commit

Any failure rolls the whole unit back, so no entry exists without its
links and no link exists without its entry. The transaction runs on a
context detached from caller cancellation: a shutdown between records is
honoured by the importer, never halfway through a write.
*/

//nolint:staticcheck // File documentation, not package doc
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/catalogsync/internal/metrics"
)

// maxSlugAttempts bounds the -N suffix search.
const maxSlugAttempts = 1000

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExistsByExternalID reports whether an entry with the upstream id is stored.
func (s *Store) ExistsByExternalID(ctx context.Context, externalID int64) (bool, error) {
	start := time.Now()
	exists, err := s.exists(ctx, s.db, `SELECT COUNT(*) FROM entries WHERE external_id = ?`, externalID)
	metrics.RecordDBQuery("exists_external_id", time.Since(start), err)
	return exists, err
}

// SlugExists reports whether slug is taken.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	start := time.Now()
	exists, err := s.exists(ctx, s.db, `SELECT COUNT(*) FROM entries WHERE slug = ?`, slug)
	metrics.RecordDBQuery("exists_slug", time.Since(start), err)
	return exists, err
}

func (s *Store) exists(ctx context.Context, q queryer, query string, arg interface{}) (bool, error) {
	var n int64
	if err := q.QueryRowContext(ctx, s.q(query), arg).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query entries: %w", err)
	}
	return n > 0, nil
}

// CreateEntry validates and stores e with its genres and screenshots.
// The stored slug may carry a numeric suffix; the returned Entry has the final value.
func (s *Store) CreateEntry(ctx context.Context, e *NewEntry) (*Entry, error) {
	start := time.Now()
	entry, err := s.createEntry(context.WithoutCancel(ctx), e)
	metrics.RecordDBQuery("create_entry", time.Since(start), err)
	return entry, err
}

func (s *Store) createEntry(ctx context.Context, e *NewEntry) (*Entry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	entry, err := s.writeEntry(ctx, tx, e)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn().Err(rbErr).Msg("Rollback failed")
		}
		return nil, s.classifyWriteError(ctx, e, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.classifyWriteError(ctx, e, fmt.Errorf("failed to commit entry: %w", err))
	}
	return entry, nil
}

// classifyWriteError turns a unique violation on external_id, raised by a
// concurrent writer, into ErrDuplicateExternalID. Runs after rollback.
func (s *Store) classifyWriteError(ctx context.Context, e *NewEntry, err error) error {
	if errors.Is(err, ErrDuplicateExternalID) || e.ExternalID == nil {
		return err
	}
	if exists, existsErr := s.ExistsByExternalID(ctx, *e.ExternalID); existsErr == nil && exists {
		return fmt.Errorf("%w: %d", ErrDuplicateExternalID, *e.ExternalID)
	}
	return err
}

func (s *Store) writeEntry(ctx context.Context, tx *sql.Tx, e *NewEntry) (*Entry, error) {
	if e.ExternalID != nil {
		exists, err := s.exists(ctx, tx, `SELECT COUNT(*) FROM entries WHERE external_id = ?`, *e.ExternalID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateExternalID, *e.ExternalID)
		}
	}

	slug, err := s.resolveSlug(ctx, tx, e.Slug)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	var releaseDate interface{}
	if e.ReleaseDate != nil {
		releaseDate = *e.ReleaseDate
	}
	var externalID interface{}
	if e.ExternalID != nil {
		externalID = *e.ExternalID
	}

	var id int64
	err = tx.QueryRowContext(ctx, s.q(`INSERT INTO entries (
		external_id, slug, title, image, price, original_price, discount,
		platform, region, product_type, has_cashback, cashback_percent,
		release_date, developer, publisher, description, popularity_score, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		externalID, slug, e.Title, e.Image, e.Price.InexactFloat64(), e.OriginalPrice.InexactFloat64(), e.Discount,
		string(e.Platform), string(e.Region), string(e.ProductType), e.HasCashback, e.CashbackPercent,
		releaseDate, nullString(e.Developer), nullString(e.Publisher), nullString(e.Description),
		e.PopularityScore, createdAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry %q: %w", slug, err)
	}

	genres, err := s.attachGenres(ctx, tx, id, e.Genres)
	if err != nil {
		return nil, err
	}

	for i, url := range e.Screenshots {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO entry_screenshots (entry_id, position, url) VALUES (?, ?, ?)`),
			id, i, url); err != nil {
			return nil, fmt.Errorf("failed to insert screenshot %d: %w", i, err)
		}
	}

	return &Entry{
		ID:              id,
		ExternalID:      e.ExternalID,
		Slug:            slug,
		Title:           e.Title,
		Image:           e.Image,
		Price:           e.Price,
		OriginalPrice:   e.OriginalPrice,
		Discount:        e.Discount,
		Platform:        e.Platform,
		Region:          e.Region,
		ProductType:     e.ProductType,
		HasCashback:     e.HasCashback,
		CashbackPercent: e.CashbackPercent,
		ReleaseDate:     e.ReleaseDate,
		Developer:       e.Developer,
		Publisher:       e.Publisher,
		Description:     e.Description,
		PopularityScore: e.PopularityScore,
		Genres:          genres,
		Screenshots:     append([]string{}, e.Screenshots...),
		CreatedAt:       createdAt,
	}, nil
}

// resolveSlug returns base or the first free base-N.
func (s *Store) resolveSlug(ctx context.Context, q queryer, base string) (string, error) {
	candidate := base
	for n := 1; n <= maxSlugAttempts; n++ {
		taken, err := s.exists(ctx, q, `SELECT COUNT(*) FROM entries WHERE slug = ?`, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrSlugExhausted, base, maxSlugAttempts)
}

// GetByExternalID loads the entry imported from the upstream id.
func (s *Store) GetByExternalID(ctx context.Context, externalID int64) (*Entry, error) {
	return s.getEntry(ctx, "get_by_external_id", `external_id = ?`, externalID)
}

// GetBySlug loads the entry with slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Entry, error) {
	return s.getEntry(ctx, "get_by_slug", `slug = ?`, slug)
}

const entrySelect = `SELECT id, external_id, slug, title, image,
	CAST(price AS VARCHAR), CAST(original_price AS VARCHAR), discount,
	platform, region, product_type, has_cashback, cashback_percent,
	release_date, developer, publisher, description, popularity_score, created_at
FROM entries WHERE `

func (s *Store) getEntry(ctx context.Context, op, where string, arg interface{}) (entry *Entry, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordDBQuery(op, time.Since(start), nil)
			return
		}
		metrics.RecordDBQuery(op, time.Since(start), err)
	}()

	var (
		e                                 Entry
		externalID                        sql.NullInt64
		platform, region, productType     string
		releaseDate                       sql.NullTime
		developer, publisher, description sql.NullString
	)
	err = s.db.QueryRowContext(ctx, s.q(entrySelect+where), arg).Scan(
		&e.ID, &externalID, &e.Slug, &e.Title, &e.Image,
		&e.Price, &e.OriginalPrice, &e.Discount,
		&platform, &region, &productType, &e.HasCashback, &e.CashbackPercent,
		&releaseDate, &developer, &publisher, &description, &e.PopularityScore, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	if externalID.Valid {
		v := externalID.Int64
		e.ExternalID = &v
	}
	if releaseDate.Valid {
		d := time.Date(releaseDate.Time.Year(), releaseDate.Time.Month(), releaseDate.Time.Day(), 0, 0, 0, 0, time.UTC)
		e.ReleaseDate = &d
	}
	e.Platform = Platform(platform)
	e.Region = Region(region)
	e.ProductType = ProductType(productType)
	e.Developer = developer.String
	e.Publisher = publisher.String
	e.Description = description.String
	e.Price = e.Price.Round(2)
	e.OriginalPrice = e.OriginalPrice.Round(2)

	if e.Genres, err = s.entryGenres(ctx, e.ID); err != nil {
		return nil, err
	}
	if e.Screenshots, err = s.entryScreenshots(ctx, e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) entryScreenshots(ctx context.Context, entryID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT url FROM entry_screenshots WHERE entry_id = ? ORDER BY position`), entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenshots: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	metrics.RecordDBQuery("count", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
