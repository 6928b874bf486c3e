// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package catalogimport

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/catalogsync/internal/catalog"
)

// RandSource is the random source used for synthesized fields.
// *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

// NewRandSource returns a PCG-backed source. A zero seed draws a random one.
func NewRandSource(seed uint64) RandSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Weighted pairs a value with its selection weight.
type Weighted[T any] struct {
	Value  T
	Weight int
}

// WeightedTable draws values proportionally to their weights.
type WeightedTable[T any] struct {
	entries  []Weighted[T]
	total    int
	fallback T
}

// NewWeightedTable validates entries and builds a table. fallback is
// returned only if the cumulative scan never matches, which a valid table
// cannot produce.
func NewWeightedTable[T any](fallback T, entries ...Weighted[T]) (*WeightedTable[T], error) {
	if len(entries) == 0 {
		return nil, errors.New("weighted table: no entries")
	}
	total := 0
	for i, e := range entries {
		if e.Weight <= 0 {
			return nil, fmt.Errorf("weighted table: entry %d has weight %d", i, e.Weight)
		}
		total += e.Weight
	}
	return &WeightedTable[T]{
		entries:  append([]Weighted[T]{}, entries...),
		total:    total,
		fallback: fallback,
	}, nil
}

// Pick draws n in [1, total] and returns the first value whose cumulative
// weight reaches n.
func (t *WeightedTable[T]) Pick(r RandSource) T {
	n := r.IntN(t.total) + 1
	cumulative := 0
	for _, e := range t.entries {
		cumulative += e.Weight
		if n <= cumulative {
			return e.Value
		}
	}
	return t.fallback
}

// Total returns the sum of all weights.
func (t *WeightedTable[T]) Total() int {
	return t.total
}

// Entries returns a copy of the table.
func (t *WeightedTable[T]) Entries() []Weighted[T] {
	return append([]Weighted[T]{}, t.entries...)
}

// FallbackPrice is returned by a price table that fails to match.
var FallbackPrice = decimal.RequireFromString("29.99")

// DefaultPriceLadder is biased toward cheaper price points.
var DefaultPriceLadder = []Weighted[decimal.Decimal]{
	{decimal.RequireFromString("9.99"), 20},
	{decimal.RequireFromString("14.99"), 15},
	{decimal.RequireFromString("19.99"), 15},
	{decimal.RequireFromString("24.99"), 12},
	{decimal.RequireFromString("29.99"), 10},
	{decimal.RequireFromString("34.99"), 8},
	{decimal.RequireFromString("39.99"), 7},
	{decimal.RequireFromString("44.99"), 5},
	{decimal.RequireFromString("49.99"), 4},
	{decimal.RequireFromString("59.99"), 3},
	{decimal.RequireFromString("69.99"), 1},
}

// DefaultDiscounts gives a nonzero discount 3 times in 11 (24 of 88),
// spread evenly over the discount steps.
var DefaultDiscounts = []Weighted[int]{
	{0, 64},
	{10, 3},
	{15, 3},
	{20, 3},
	{25, 3},
	{30, 3},
	{33, 3},
	{40, 3},
	{50, 3},
}

// Cashback synthesis parameters.
const (
	CashbackChancePercent = 40
	CashbackMinPercent    = 5
	CashbackMaxPercent    = 25
)

// pickUniform returns a uniformly drawn element of values.
func pickUniform[T any](r RandSource, values []T) T {
	return values[r.IntN(len(values))]
}

func validatePriceTable(t *WeightedTable[decimal.Decimal]) error {
	for _, e := range t.entries {
		if !e.Value.IsPositive() {
			return fmt.Errorf("price table: non-positive price %s", e.Value)
		}
		if !e.Value.Equal(e.Value.Round(2)) {
			return fmt.Errorf("price table: price %s has more than two decimals", e.Value)
		}
	}
	return nil
}

func validateDiscountTable(t *WeightedTable[int]) error {
	for _, e := range t.entries {
		if e.Value < 0 || e.Value >= 100 {
			return fmt.Errorf("discount table: discount %d out of range", e.Value)
		}
	}
	return nil
}

func validatePlatforms(platforms []catalog.Platform) error {
	if len(platforms) == 0 {
		return errors.New("platform table: empty")
	}
	for _, p := range platforms {
		if !p.Valid() {
			return fmt.Errorf("platform table: unknown platform %q", p)
		}
	}
	return nil
}

func validateRegions(regions []catalog.Region) error {
	if len(regions) == 0 {
		return errors.New("region table: empty")
	}
	for _, r := range regions {
		if !r.Valid() {
			return fmt.Errorf("region table: unknown region %q", r)
		}
	}
	return nil
}
