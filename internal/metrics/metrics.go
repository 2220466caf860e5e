// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Comlink request latency, retries, and circuit breaker state
// - Google Sheets read/write performance
// - Sync run outcomes per guild
// - Catalog sizes (units and skills)

var (
	// Comlink Client Metrics
	ComlinkRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comlink_request_duration_seconds",
			Help:    "Duration of Comlink API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"}, // "/metadata", "/data", "/guild", "/player"
	)

	ComlinkRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comlink_requests_total",
			Help: "Total number of Comlink API requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: "success", "error"
	)

	ComlinkRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comlink_retries_total",
			Help: "Total number of Comlink request retry attempts",
		},
		[]string{"endpoint"},
	)

	// Sheets Store Metrics
	SheetsOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheets_operation_duration_seconds",
			Help:    "Duration of Google Sheets operations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "table"}, // operation: "read", "ensure_headers", "write_rows", "write_table"
	)

	SheetsOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheets_operation_errors_total",
			Help: "Total number of Google Sheets operation errors",
		},
		[]string{"operation", "table"},
	)

	SheetsRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheets_rows_written_total",
			Help: "Total number of rows written to the spreadsheet",
		},
		[]string{"table"},
	)

	// Sync Run Metrics
	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of full sync runs in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200}, // A run covers every guild in the roster sheet
		},
	)

	SyncGuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_guild_duration_seconds",
			Help:    "Duration of single-guild sync in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"}, // "success", "skipped", "failed"
	)

	SyncGuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_guilds_total",
			Help: "Total number of guild sync attempts",
		},
		[]string{"outcome"},
	)

	SyncMembersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_members_processed_total",
			Help: "Total number of guild members synchronized",
		},
	)

	SyncMemberFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_member_failures_total",
			Help: "Total number of members skipped because their roster fetch failed",
		},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of sync errors",
		},
		[]string{"error_type"}, // "comlink", "sheets", "catalog", "validation"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of last fully successful sync run",
		},
	)

	// Catalog Metrics
	CatalogUnits = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_units",
			Help: "Number of units in the display catalog",
		},
		[]string{"kind"}, // "character", "ship"
	)

	CatalogSkills = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_skills",
			Help: "Number of tracked skills in the display catalog",
		},
		[]string{"kind"}, // "zeta", "omicron"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordComlinkRequest records a Comlink API call metric.
func RecordComlinkRequest(endpoint string, duration time.Duration, err error) {
	ComlinkRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ComlinkRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordComlinkRetry records a retry attempt against a Comlink endpoint.
func RecordComlinkRetry(endpoint string) {
	ComlinkRetriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordSheetsOperation records a spreadsheet operation metric.
func RecordSheetsOperation(operation, table string, duration time.Duration, err error) {
	SheetsOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		SheetsOperationErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordGuildSync records the outcome of a single-guild synchronization.
func RecordGuildSync(outcome string, duration time.Duration) {
	SyncGuildDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	SyncGuildsTotal.WithLabelValues(outcome).Inc()
}

// RecordSyncRun records a full sync run. A run is fully successful only when
// no guild failed; member-level fetch failures do not fail the run.
func RecordSyncRun(duration time.Duration, guildsFailed int) {
	SyncRunDuration.Observe(duration.Seconds())
	if guildsFailed == 0 {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordSyncError records a categorized sync error.
func RecordSyncError(errorType string) {
	SyncErrors.WithLabelValues(errorType).Inc()
}

// UpdateCatalogSizes updates the catalog gauges after a catalog load.
func UpdateCatalogSizes(characters, ships, zetas, omicrons int) {
	CatalogUnits.WithLabelValues("character").Set(float64(characters))
	CatalogUnits.WithLabelValues("ship").Set(float64(ships))
	CatalogSkills.WithLabelValues("zeta").Set(float64(zetas))
	CatalogSkills.WithLabelValues("omicron").Set(float64(omicrons))
}
