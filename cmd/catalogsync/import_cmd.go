// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/igdb"
	catalogimport "github.com/tomtom215/catalogsync/internal/import"
	"github.com/tomtom215/catalogsync/internal/logging"
)

// parseImportFlags applies command-line overrides to the configured defaults.
func parseImportFlags(args []string, defaults catalogimport.RunParams, stderr io.Writer) (catalogimport.RunParams, error) {
	p := defaults

	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&p.Count, "count", defaults.Count, "number of records to process")
	fs.IntVar(&p.Offset, "skip", defaults.Offset, "upstream offset of the first page")
	fs.Float64Var(&p.MinRating, "min-rating", defaults.MinRating, "minimum total rating (0 disables the filter)")
	fs.IntVar(&p.BatchSize, "batch", defaults.BatchSize, fmt.Sprintf("page size (capped at %d)", igdb.MaxLimit))
	fs.BoolVar(&p.Resume, "resume", defaults.Resume, "start from the saved offset of the previous run")

	if err := fs.Parse(args); err != nil {
		return p, err
	}
	if fs.NArg() > 0 {
		return p, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func runImport(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	params, err := parseImportFlags(args, catalogimport.ParamsFromConfig(&cfg.Import), stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		return 2
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "startup failed: %v\n", err)
		return 1
	}
	defer a.Close()

	fmt.Fprintf(stdout, "Importing %d games (offset %d, min rating %.0f, batch %d)\n",
		params.Count, params.Offset, params.MinRating, params.EffectiveBatchSize())

	stats, err := a.importer.Import(ctx, params)
	if stats != nil {
		printSummary(stdout, stats)
	}
	return importExitCode(ctx, err, stderr)
}

// importExitCode maps a run result to the process exit status.
// Record and batch failures never reach here; only fatal run errors do.
func importExitCode(ctx context.Context, err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case igdb.IsCredentialError(err):
		fmt.Fprintf(stderr, "credentials rejected: %v\n", err)
		fmt.Fprintln(stderr, "set IGDB_CLIENT_ID and IGDB_CLIENT_SECRET")
	case igdb.IsAuthError(err):
		fmt.Fprintf(stderr, "authentication failed: %v\n", err)
	case ctx.Err() != nil:
		fmt.Fprintln(stderr, "import interrupted")
	default:
		logging.Error().Err(err).Msg("Import failed")
		fmt.Fprintf(stderr, "import failed: %v\n", err)
	}
	return 1
}

func printSummary(w io.Writer, s *catalogimport.ImportStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Import summary")
	fmt.Fprintf(tw, "  Imported:\t%d\n", s.Imported)
	fmt.Fprintf(tw, "  Skipped (duplicate):\t%d\n", s.SkippedDuplicate)
	fmt.Fprintf(tw, "  Failed:\t%d\n", s.Failed)
	fmt.Fprintf(tw, "  Processed:\t%d / %d\n", s.Processed, s.Target)
	fmt.Fprintf(tw, "  Batches:\t%d (%d failed)\n", s.BatchesAttempted, s.BatchesFailed)
	fmt.Fprintf(tw, "  Next offset:\t%d\n", s.NextOffset)
	fmt.Fprintf(tw, "  Duration:\t%s\n", s.Duration().Round(time.Millisecond))
	_ = tw.Flush()
}
