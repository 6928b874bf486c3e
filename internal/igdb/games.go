// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
)

// EndpointGames is the games endpoint path.
const EndpointGames = "games"

// GameFields is the expanded field list used for every catalog fetch.
var GameFields = []string{
	"name",
	"slug",
	"summary",
	"cover.image_id",
	"screenshots.image_id",
	"genres.name",
	"first_release_date",
	"total_rating",
	"category",
	"involved_companies.company.name",
	"involved_companies.developer",
	"involved_companies.publisher",
}

// SearchLimit is the default result count for SearchGames.
const SearchLimit = 20

// probeLimit is the fixed result count of the connectivity probe.
const probeLimit = 5

// CandidatesQuery selects games with a cover and, when minRating > 0, a
// total rating of at least minRating, best rated first.
func CandidatesQuery(limit, offset int, minRating float64) *Query {
	filters := []Filter{NotNull("cover")}
	if minRating > 0 {
		filters = append(filters, Compare("total_rating", Gte, minRating))
	}
	return NewQuery().
		Fields(GameFields...).
		Where(filters...).
		Sort("total_rating", Desc).
		Limit(limit).
		Offset(offset)
}

// PopularQuery selects rated games with a cover, best rated first.
func PopularQuery(limit, offset int) *Query {
	return NewQuery().
		Fields(GameFields...).
		Where(NotNull("cover"), NotNull("total_rating")).
		Sort("total_rating", Desc).
		Limit(limit).
		Offset(offset)
}

// SearchQuery performs a text search over games with a cover. Search results
// come back in relevance order, so no sort is applied.
func SearchQuery(term string, limit int) *Query {
	return NewQuery().
		Search(term).
		Fields(GameFields...).
		Where(NotNull("cover")).
		Limit(limit)
}

// FetchCandidates returns one page of import candidates.
func (c *Client) FetchCandidates(ctx context.Context, limit, offset int, minRating float64) ([]Game, error) {
	var games []Game
	if err := c.Execute(ctx, EndpointGames, CandidatesQuery(limit, offset, minRating), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// FetchPopular returns one page of rated games.
func (c *Client) FetchPopular(ctx context.Context, limit, offset int) ([]Game, error) {
	var games []Game
	if err := c.Execute(ctx, EndpointGames, PopularQuery(limit, offset), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// FetchByID returns a single game, or ErrNotFound.
func (c *Client) FetchByID(ctx context.Context, id int64) (*Game, error) {
	q := NewQuery().Fields(GameFields...).Where(Compare("id", Eq, id)).Limit(1)

	var games []Game
	if err := c.Execute(ctx, EndpointGames, q, &games); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrNotFound
	}
	return &games[0], nil
}

// SearchGames runs a text search. A non-positive limit uses SearchLimit.
func (c *Client) SearchGames(ctx context.Context, term string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = SearchLimit
	}
	var games []Game
	if err := c.Execute(ctx, EndpointGames, SearchQuery(term, limit), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Probe runs the cheapest possible query to verify credentials and connectivity.
func (c *Client) Probe(ctx context.Context) ([]Game, error) {
	var games []Game
	if err := c.Execute(ctx, EndpointGames, NewQuery().Fields("name").Limit(probeLimit), &games); err != nil {
		return nil, err
	}
	return games, nil
}
