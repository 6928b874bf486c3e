// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxScreenshots is the most screenshots stored per entry.
const MaxScreenshots = 10

// Sentinel errors.
var (
	ErrNotFound            = errors.New("catalog: entry not found")
	ErrDuplicateExternalID = errors.New("catalog: external id already imported")
	ErrInvalidEntry        = errors.New("catalog: invalid entry")
	ErrSlugExhausted       = errors.New("catalog: no free slug")
)

// ProductType classifies a catalog entry.
type ProductType string

const (
	ProductGame   ProductType = "Game"
	ProductDLC    ProductType = "DLC"
	ProductBundle ProductType = "Bundle"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	switch t {
	case ProductGame, ProductDLC, ProductBundle:
		return true
	}
	return false
}

// Platform is the storefront an entry is sold on.
type Platform string

const (
	PlatformSteam       Platform = "Steam"
	PlatformXbox        Platform = "Xbox"
	PlatformPlayStation Platform = "PlayStation"
	PlatformNintendo    Platform = "Nintendo"
	PlatformEpic        Platform = "Epic"
	PlatformGOG         Platform = "GOG"
)

// Platforms lists every platform in table order.
var Platforms = []Platform{
	PlatformSteam, PlatformXbox, PlatformPlayStation, PlatformNintendo, PlatformEpic, PlatformGOG,
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Region is the activation region of an entry.
type Region string

const (
	RegionGlobal Region = "GLOBAL"
	RegionEU     Region = "EU"
	RegionUS     Region = "US"
	RegionTR     Region = "TR"
)

// Regions lists every region in table order.
var Regions = []Region{RegionGlobal, RegionEU, RegionUS, RegionTR}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// Genre is a named category shared by entries.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// GenreRef names a genre to attach; it is created on first use.
type GenreRef struct {
	Name string
	Slug string
}

// NewEntry is a catalog entry that has not been persisted yet.
// Slug is the preferred slug; CreateEntry appends -1, -2, ... on collision.
type NewEntry struct {
	ExternalID      *int64
	Slug            string
	Title           string
	Image           string
	Price           decimal.Decimal
	OriginalPrice   decimal.Decimal
	Discount        int
	Platform        Platform
	Region          Region
	ProductType     ProductType
	HasCashback     bool
	CashbackPercent int
	ReleaseDate     *time.Time
	Developer       string
	Publisher       string
	Description     string
	PopularityScore int
	Genres          []GenreRef
	Screenshots     []string
}

// Validate checks the invariants every stored entry satisfies.
func (e *NewEntry) Validate() error {
	if e.Slug == "" {
		return fmt.Errorf("%w: empty slug", ErrInvalidEntry)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidEntry)
	}
	if e.Discount < 0 || e.Discount >= 100 {
		return fmt.Errorf("%w: discount %d out of range", ErrInvalidEntry, e.Discount)
	}
	if !e.Price.IsPositive() {
		return fmt.Errorf("%w: price %s must be positive", ErrInvalidEntry, e.Price)
	}
	if e.Discount == 0 && !e.Price.Equal(e.OriginalPrice) {
		return fmt.Errorf("%w: price %s differs from original %s without discount", ErrInvalidEntry, e.Price, e.OriginalPrice)
	}
	if e.Discount > 0 && !DiscountedPrice(e.OriginalPrice, e.Discount).Equal(e.Price) {
		return fmt.Errorf("%w: price %s does not match original %s at %d%% off",
			ErrInvalidEntry, e.Price, e.OriginalPrice, e.Discount)
	}
	if e.HasCashback != (e.CashbackPercent > 0) {
		return fmt.Errorf("%w: cashback flag %t with percent %d", ErrInvalidEntry, e.HasCashback, e.CashbackPercent)
	}
	if !e.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidEntry, e.Platform)
	}
	if !e.Region.Valid() {
		return fmt.Errorf("%w: unknown region %q", ErrInvalidEntry, e.Region)
	}
	if !e.ProductType.Valid() {
		return fmt.Errorf("%w: unknown product type %q", ErrInvalidEntry, e.ProductType)
	}
	if len(e.Screenshots) > MaxScreenshots {
		return fmt.Errorf("%w: %d screenshots exceed %d", ErrInvalidEntry, len(e.Screenshots), MaxScreenshots)
	}
	for i, s := range e.Screenshots {
		if s == "" {
			return fmt.Errorf("%w: screenshot %d has no url", ErrInvalidEntry, i)
		}
	}
	for _, g := range e.Genres {
		if g.Slug == "" || g.Name == "" {
			return fmt.Errorf("%w: genre %q has no slug", ErrInvalidEntry, g.Name)
		}
	}
	return nil
}

// DiscountedPrice returns original reduced by discount percent, rounded to cents.
func DiscountedPrice(original decimal.Decimal, discount int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - discount)).Div(decimal.NewFromInt(100))
	return original.Mul(factor).Round(2)
}

// OriginalPrice back-derives the list price from a sale price at discount percent.
func OriginalPrice(price decimal.Decimal, discount int) decimal.Decimal {
	if discount <= 0 {
		return price
	}
	factor := decimal.NewFromInt(int64(100 - discount)).Div(decimal.NewFromInt(100))
	return price.Div(factor).Round(2)
}

// Entry is a persisted catalog entry.
type Entry struct {
	ID              int64           `json:"id"`
	ExternalID      *int64          `json:"external_id,omitempty"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Image           string          `json:"image"`
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	Discount        int             `json:"discount"`
	Platform        Platform        `json:"platform"`
	Region          Region          `json:"region"`
	ProductType     ProductType     `json:"product_type"`
	HasCashback     bool            `json:"has_cashback"`
	CashbackPercent int             `json:"cashback_percent"`
	ReleaseDate     *time.Time      `json:"release_date,omitempty"`
	Developer       string          `json:"developer,omitempty"`
	Publisher       string          `json:"publisher,omitempty"`
	Description     string          `json:"description,omitempty"`
	PopularityScore int             `json:"popularity_score"`
	Genres          []Genre         `json:"genres"`
	Screenshots     []string        `json:"screenshots"`
	CreatedAt       time.Time       `json:"created_at"`
}
