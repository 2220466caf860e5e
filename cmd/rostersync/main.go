// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

// Package main is the entry point for the rostersync service.
//
// Rostersync keeps an operator-edited Google Spreadsheet in step with Star
// Wars: Galaxy of Heroes guild data served by a self-hosted Comlink instance.
// Each run fetches every configured guild and its members' rosters, derives
// the display fields (roles, GAC leagues, relic tiers, tracked skill tiers),
// and replaces each guild's rows in the Guilds, Players, Player_Units, and
// Player_Skills worksheets while leaving operator-managed columns untouched.
//
// # Startup order
//
//  1. Load .env if present (godotenv), then configuration (Koanf v2: defaults,
//     optional config.yaml, environment variables).
//  2. Initialize zerolog from the logging configuration.
//  3. Build the Google Sheets store, the circuit-breaker Comlink client, the
//     catalog loader, and the sync manager.
//  4. Run the suture supervision tree: the sync manager in the engine layer
//     and, when enabled, the ops HTTP server (/healthz, /metrics) in the ops
//     layer.
//
// # Configuration
//
// Required settings: COMLINK_URL, SHEETS_SPREADSHEET_ID, and
// SHEETS_CREDENTIALS_FILE (a Google service-account JSON key with access to
// the spreadsheet). See internal/config for the full variable list and
// defaults.
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the run context; the supervisor stops the sync
// manager and shuts the ops listener down gracefully.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aruizcam/rostersync/internal/catalog"
	"github.com/aruizcam/rostersync/internal/comlink"
	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/ops"
	"github.com/aruizcam/rostersync/internal/sheets"
	"github.com/aruizcam/rostersync/internal/supervisor"
	"github.com/aruizcam/rostersync/internal/supervisor/services"
	"github.com/aruizcam/rostersync/internal/sync"
)

func main() {
	// Optional .env for local runs; environment always wins over it.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("comlink_url", cfg.Comlink.URL).
		Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).
		Dur("interval", cfg.Sync.Interval).
		Bool("ops_enabled", cfg.Ops.Enabled).
		Msg("Starting rostersync")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sheets.NewGoogleStore(ctx, &cfg.Sheets)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize spreadsheet store")
	}

	client := comlink.NewCircuitBreakerClient(&cfg.Comlink)
	loader := catalog.NewLoader(store, cfg.Sheets.Tables, cfg.Sync.ExcludeBaseIDContains)

	manager, err := sync.New(cfg, client, store, loader)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create sync manager")
	}

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddEngineService(manager)

	if cfg.Ops.Enabled {
		opsServer := ops.NewServer(cfg.Ops, manager)
		tree.AddOpsService(services.NewHTTPServerService("ops-http", opsServer.HTTPServer(),
			supervisor.DefaultTreeConfig().ShutdownTimeout))
		logging.Info().Str("addr", cfg.Ops.Addr).Msg("Ops endpoints enabled")
	}

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree exited with error")
	}
	logging.Info().Msg("Shutdown complete")
}
