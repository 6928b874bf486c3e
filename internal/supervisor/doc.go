// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
Package supervisor runs serve mode under a suture v4 supervisor tree.

The tree has two layers so a crashing HTTP listener never interrupts an
import in progress, and a failing import never takes the status API down:

	RootSupervisor ("catalogsync")
	├── ImportSupervisor ("import-layer")
	│   └── ImportService (scheduled and triggered runs)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog, which is handed the zerolog-backed slog logger from
internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddImportService(importSvc)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)

Services added to a layer can only be removed through that layer; the
root token space does not cover them.
*/
package supervisor
