// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"errors"
	"strings"
	"testing"
)

const gameFieldList = "name,slug,summary,cover.image_id,screenshots.image_id,genres.name," +
	"first_release_date,total_rating,category,involved_companies.company.name," +
	"involved_companies.developer,involved_companies.publisher"

func TestQueryBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			name:  "candidates first page",
			query: CandidatesQuery(50, 0, 70),
			want:  "fields " + gameFieldList + ";where cover != null & total_rating >= 70;sort total_rating desc;limit 50;",
		},
		{
			name:  "candidates with offset",
			query: CandidatesQuery(50, 100, 70),
			want:  "fields " + gameFieldList + ";where cover != null & total_rating >= 70;sort total_rating desc;limit 50;offset 100;",
		},
		{
			name:  "candidates without rating floor",
			query: CandidatesQuery(10, 0, 0),
			want:  "fields " + gameFieldList + ";where cover != null;sort total_rating desc;limit 10;",
		},
		{
			name:  "fractional rating",
			query: CandidatesQuery(10, 0, 72.5),
			want:  "fields " + gameFieldList + ";where cover != null & total_rating >= 72.5;sort total_rating desc;limit 10;",
		},
		{
			name:  "popular",
			query: PopularQuery(20, 40),
			want:  "fields " + gameFieldList + ";where cover != null & total_rating != null;sort total_rating desc;limit 20;offset 40;",
		},
		{
			name:  "search",
			query: SearchQuery("zelda", 5),
			want:  `search "zelda";fields ` + gameFieldList + ";where cover != null;limit 5;",
		},
		{
			name:  "probe",
			query: NewQuery().Fields("name").Limit(5),
			want:  "fields name;limit 5;",
		},
		{
			name:  "no fields selects everything",
			query: NewQuery().Limit(1),
			want:  "fields *;limit 1;",
		},
		{
			name:  "limit capped",
			query: NewQuery().Fields("name").Limit(10000),
			want:  "fields name;limit 500;",
		},
		{
			name:  "in filter",
			query: NewQuery().Fields("name").Where(In("id", 1, 2, int64(3))),
			want:  "fields name;where id = (1,2,3);",
		},
		{
			name:  "null and bool",
			query: NewQuery().Fields("name").Where(IsNull("cover"), Compare("ported", Eq, true)),
			want:  "fields name;where cover = null & ported = true;",
		},
		{
			name:  "quoted search term",
			query: NewQuery().Search(`say "hi"`).Fields("name"),
			want:  `search "say \"hi\"";fields name;`,
		},
		{
			name:  "default sort order",
			query: NewQuery().Fields("name").Sort("name", ""),
			want:  "fields name;sort name asc;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.query.Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Build() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestQueryBuild_Errors(t *testing.T) {
	t.Parallel()

	t.Run("search with sort", func(t *testing.T) {
		_, err := NewQuery().Search("x").Sort("name", Asc).Build()
		if !errors.Is(err, ErrSearchWithSort) {
			t.Errorf("Build() error = %v, want ErrSearchWithSort", err)
		}
	})

	t.Run("empty set", func(t *testing.T) {
		_, err := NewQuery().Where(In("id")).Build()
		if !errors.Is(err, ErrEmptySet) {
			t.Errorf("Build() error = %v, want ErrEmptySet", err)
		}
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := NewQuery().Where(Compare("id", Eq, []int{1})).Build()
		if err == nil || !strings.Contains(err.Error(), "unsupported filter value") {
			t.Errorf("Build() error = %v, want unsupported filter value", err)
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already canonical", "fields name;limit 5;", "fields name;limit 5;"},
		{"line breaks", "fields name;\n  limit 5;\n", "fields name;limit 5;"},
		{"spaces around semicolons", "  fields   name ;  limit 5 ; ", "fields name;limit 5;"},
		{"tabs", "fields\tname;\tlimit\t5;", "fields name;limit 5;"},
		{"quoted semicolon", `search "a ; b";fields name;`, `search "a ; b";fields name;`},
		{"escaped quote", `search "x \" ; y" ;fields name;`, `search "x \" ; y";fields name;`},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	q, err := CandidatesQuery(50, 100, 70).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if Normalize(q) != q {
		t.Errorf("Normalize changed an already built query: %q", q)
	}
}
