// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalogimport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/catalogsync/internal/catalog"
	"github.com/tomtom215/catalogsync/internal/igdb"
)

// MappingError reports a record that cannot become a catalog entry.
type MappingError struct {
	ExternalID int64
	Name       string
	Err        error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map game %d (%q): %v", e.ExternalID, e.Name, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// Mapper converts IGDB games into catalog entry drafts.
//
// Random draws happen in a fixed order per record: discount, price,
// platform, region, cashback flag, cashback percent (only when the flag is set).
type Mapper struct {
	images         *igdb.ImageURLBuilder
	rand           RandSource
	prices         *WeightedTable[decimal.Decimal]
	discounts      *WeightedTable[int]
	platforms      []catalog.Platform
	regions        []catalog.Region
	maxScreenshots int
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithMaxScreenshots caps stored screenshots below catalog.MaxScreenshots.
func WithMaxScreenshots(n int) MapperOption {
	return func(m *Mapper) { m.maxScreenshots = n }
}

// WithPriceTable replaces the price ladder.
func WithPriceTable(t *WeightedTable[decimal.Decimal]) MapperOption {
	return func(m *Mapper) { m.prices = t }
}

// WithDiscountTable replaces the discount weights.
func WithDiscountTable(t *WeightedTable[int]) MapperOption {
	return func(m *Mapper) { m.discounts = t }
}

// WithPlatforms replaces the platform list.
func WithPlatforms(p ...catalog.Platform) MapperOption {
	return func(m *Mapper) { m.platforms = p }
}

// WithRegions replaces the region list.
func WithRegions(r ...catalog.Region) MapperOption {
	return func(m *Mapper) { m.regions = r }
}

// NewMapper creates a mapper and validates its tables.
func NewMapper(images *igdb.ImageURLBuilder, rnd RandSource, opts ...MapperOption) (*Mapper, error) {
	if images == nil {
		return nil, errors.New("mapper: image url builder is required")
	}
	if rnd == nil {
		return nil, errors.New("mapper: random source is required")
	}

	prices, err := NewWeightedTable(FallbackPrice, DefaultPriceLadder...)
	if err != nil {
		return nil, err
	}
	discounts, err := NewWeightedTable(0, DefaultDiscounts...)
	if err != nil {
		return nil, err
	}

	m := &Mapper{
		images:         images,
		rand:           rnd,
		prices:         prices,
		discounts:      discounts,
		platforms:      catalog.Platforms,
		regions:        catalog.Regions,
		maxScreenshots: catalog.MaxScreenshots,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.prices == nil || m.discounts == nil {
		return nil, errors.New("mapper: price and discount tables are required")
	}
	if err := validatePriceTable(m.prices); err != nil {
		return nil, err
	}
	if err := validateDiscountTable(m.discounts); err != nil {
		return nil, err
	}
	if err := validatePlatforms(m.platforms); err != nil {
		return nil, err
	}
	if err := validateRegions(m.regions); err != nil {
		return nil, err
	}
	if m.maxScreenshots < 0 || m.maxScreenshots > catalog.MaxScreenshots {
		return nil, fmt.Errorf("mapper: max screenshots %d outside 0..%d", m.maxScreenshots, catalog.MaxScreenshots)
	}
	return m, nil
}

// Map converts g into a draft. The draft's slug is the preferred slug;
// collisions are resolved by the store.
func (m *Mapper) Map(g *igdb.Game) (*catalog.NewEntry, error) {
	if g == nil {
		return nil, &MappingError{Err: errors.New("nil record")}
	}
	name := strings.TrimSpace(g.Name)
	if g.ID <= 0 {
		return nil, &MappingError{ExternalID: g.ID, Name: name, Err: errors.New("missing external id")}
	}
	if name == "" {
		return nil, &MappingError{ExternalID: g.ID, Name: name, Err: errors.New("missing name")}
	}

	discount := m.discounts.Pick(m.rand)
	price := m.prices.Pick(m.rand)
	platform := pickUniform(m.rand, m.platforms)
	region := pickUniform(m.rand, m.regions)
	hasCashback := m.rand.IntN(100)+1 <= CashbackChancePercent
	cashbackPercent := 0
	if hasCashback {
		cashbackPercent = CashbackMinPercent + m.rand.IntN(CashbackMaxPercent-CashbackMinPercent+1)
	}

	externalID := g.ID
	entry := &catalog.NewEntry{
		ExternalID:      &externalID,
		Slug:            BaseSlug(g),
		Title:           name,
		Image:           m.images.Cover(g.CoverID()),
		Price:           price,
		OriginalPrice:   catalog.OriginalPrice(price, discount),
		Discount:        discount,
		Platform:        platform,
		Region:          region,
		ProductType:     ProductTypeForCategory(g.Category),
		HasCashback:     hasCashback,
		CashbackPercent: cashbackPercent,
		Developer:       g.Developer(),
		Publisher:       g.Publisher(),
		Description:     strings.TrimSpace(g.Summary),
		Genres:          genreRefs(g.GenreNames()),
		Screenshots:     m.screenshotURLs(g.ScreenshotIDs()),
	}
	if date, ok := g.ReleaseDate(); ok {
		entry.ReleaseDate = &date
	}
	if rating, ok := g.Rating(); ok {
		entry.PopularityScore = int(rating)
	}

	if err := entry.Validate(); err != nil {
		return nil, &MappingError{ExternalID: g.ID, Name: name, Err: err}
	}
	return entry, nil
}

// BaseSlug prefers the upstream slug, then the slugified name, then game-<id>.
func BaseSlug(g *igdb.Game) string {
	if s := strings.TrimSpace(g.Slug); s != "" {
		if slug.IsSlug(s) {
			return s
		}
		if made := slug.Make(s); made != "" {
			return made
		}
	}
	if made := slug.Make(g.Name); made != "" {
		return made
	}
	return "game-" + strconv.FormatInt(g.ID, 10)
}

// ProductTypeForCategory maps IGDB category codes: 1, 2, 4 are DLC-like
// (DLC, expansion, standalone expansion), 3 is a bundle, anything else a game.
func ProductTypeForCategory(category *int) catalog.ProductType {
	if category == nil {
		return catalog.ProductGame
	}
	switch *category {
	case 1, 2, 4:
		return catalog.ProductDLC
	case 3:
		return catalog.ProductBundle
	default:
		return catalog.ProductGame
	}
}

// genreRefs slugifies names and drops repeats, keeping first-seen order.
func genreRefs(names []string) []catalog.GenreRef {
	refs := make([]catalog.GenreRef, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		s := slug.Make(name)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		refs = append(refs, catalog.GenreRef{Name: name, Slug: s})
	}
	return refs
}

func (m *Mapper) screenshotURLs(ids []string) []string {
	if len(ids) > m.maxScreenshots {
		ids = ids[:m.maxScreenshots]
	}
	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		urls = append(urls, m.images.Screenshot(id))
	}
	return urls
}
