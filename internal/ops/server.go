// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

// Package ops exposes the operational HTTP surface: a health endpoint
// reporting the last sync run and the Prometheus metrics endpoint. The
// listener binds to localhost by default and carries no authentication.
package ops

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
	"github.com/aruizcam/rostersync/internal/sync"
)

// RunStatusSource reports the most recent sync run. Implemented by the sync
// manager.
type RunStatusSource interface {
	LastRun() *sync.RunResult
}

// Server serves /healthz and /metrics.
type Server struct {
	cfg     config.OpsConfig
	source  RunStatusSource
	started time.Time
}

// NewServer creates the ops server.
func NewServer(cfg config.OpsConfig, source RunStatusSource) *Server {
	return &Server{cfg: cfg, source: source, started: time.Now()}
}

// Router builds the chi router for the operational endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// HTTPServer builds the http.Server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// healthResponse is the /healthz body. Status is "idle" before the first
// run, "degraded" when the last run had failed guilds or table writes, and
// "ok" otherwise.
type healthResponse struct {
	Status  string          `json:"status"`
	Uptime  string          `json:"uptime"`
	LastRun *sync.RunResult `json:"last_run,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	metrics.AppUptime.Set(time.Since(s.started).Seconds())

	resp := healthResponse{
		Status: "idle",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if last := s.source.LastRun(); last != nil {
		resp.LastRun = last
		if last.GuildsFailed > 0 || len(last.FailedWrites) > 0 {
			resp.Status = "degraded"
		} else {
			resp.Status = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode health response")
	}
}
