// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/catalogsync/internal/api"
	"github.com/tomtom215/catalogsync/internal/config"
	catalogimport "github.com/tomtom215/catalogsync/internal/import"
	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/supervisor"
	"github.com/tomtom215/catalogsync/internal/supervisor/services"
)

func runServe(ctx context.Context, cfg *config.Config) int {
	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Startup failed")
		return 1
	}
	defer a.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return 1
	}

	importSvc := services.NewImportService(a.importer, catalogimport.ParamsFromConfig(&cfg.Import),
		cfg.Import.ScheduleInterval, cfg.Import.RunOnStartup)
	tree.AddImportService(importSvc)

	var breaker api.BreakerStater
	if a.breaker != nil {
		breaker = a.breaker
	}
	handler := api.NewHandler(a.importer, importSvc, a.store, breaker)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, api.DefaultRouterConfig()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", server.Addr).
		Dur("schedule", cfg.Import.ScheduleInterval).
		Bool("run_on_startup", cfg.Import.RunOnStartup).
		Msg("Starting supervisor tree")

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Stopped")
	return 0
}
