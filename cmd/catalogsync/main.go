// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

// Package main is the catalogsync command.
//
// catalogsync imports game records from the IGDB API into the local catalog
// store, deduplicating by upstream id and synthesizing storefront fields.
//
// # Commands
//
//	catalogsync import [--count N] [--skip N] [--min-rating R] [--batch B] [--resume]
//	catalogsync probe
//	catalogsync serve
//	catalogsync version
//
// import runs one batch import and prints a summary. Record and batch
// failures are reported in the summary and do not change the exit status.
// The exit status is 1 when credentials are missing or rejected.
//
// probe checks credentials, token exchange and a few live queries.
//
// serve runs the importer on a schedule under a supervisor tree next to an
// HTTP server with /healthz, /metrics and the import status/trigger routes.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 (highest priority wins):
//   - Environment variables (IGDB_CLIENT_ID, IGDB_CLIENT_SECRET, DATABASE_DRIVER, ...)
//   - Config file (CONFIG_PATH or ./config.yaml)
//   - Built-in defaults
//
// Flags on the import command override the import.* settings for that run.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running import between records; the summary
// of the partial run is still printed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/logging"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

const usage = `Usage: catalogsync <command> [flags]

Commands:
  import    run one import and print a summary
  probe     verify credentials and upstream connectivity
  serve     run scheduled imports and the HTTP status server
  version   print the version
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "catalogsync %s (%s)\n", version, commit)
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	case "import", "probe", "serve":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "import":
		return runImport(ctx, cfg, rest, stdout, stderr)
	case "probe":
		return runProbe(ctx, cfg, stdout)
	default:
		return runServe(ctx, cfg)
	}
}
