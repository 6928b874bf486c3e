// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/catalogsync/internal/config"
)

const (
	probeCandidates = 5
	probeSearchTerm = "zelda"
	probeSearchSize = 3
)

// runProbe checks each step of the upstream path in order and stops at the first fatal one.
func runProbe(ctx context.Context, cfg *config.Config, stdout io.Writer) int {
	a, err := newUpstream(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stdout, "FAIL  startup: %v\n", err)
		return 1
	}
	defer a.Close()
	return probe(ctx, a.credentials.HasCredentials(), a.tokens, a.source, stdout)
}

type tokenGetter interface {
	Token(ctx context.Context) (string, error)
}

func probe(ctx context.Context, hasCredentials bool, tokens tokenGetter, source upstream, out io.Writer) int {
	if !hasCredentials {
		fmt.Fprintln(out, "FAIL  credentials: IGDB_CLIENT_ID and IGDB_CLIENT_SECRET must be set")
		return 1
	}
	fmt.Fprintln(out, "ok    credentials present")

	if _, err := tokens.Token(ctx); err != nil {
		fmt.Fprintf(out, "FAIL  token: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "ok    token obtained")

	games, err := source.Probe(ctx)
	if err != nil {
		fmt.Fprintf(out, "FAIL  simple query: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "ok    simple query returned %d games\n", len(games))

	games, err = source.FetchCandidates(ctx, probeCandidates, 0, 0)
	if err != nil {
		fmt.Fprintf(out, "FAIL  candidate query: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "ok    candidate query returned %d games\n", len(games))
	for _, g := range games {
		fmt.Fprintf(out, "        %d  %s\n", g.ID, g.Name)
	}

	games, err = source.SearchGames(ctx, probeSearchTerm, probeSearchSize)
	if err != nil {
		fmt.Fprintf(out, "warn  search %q: %v\n", probeSearchTerm, err)
	} else {
		fmt.Fprintf(out, "ok    search %q returned %d games\n", probeSearchTerm, len(games))
	}

	fmt.Fprintln(out, "probe passed")
	return 0
}
