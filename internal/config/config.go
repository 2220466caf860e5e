// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package config

import "time"

// Config holds all application configuration loaded from environment variables
// and an optional config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Data Source:
//     - Comlink: the self-hosted SWGOH Comlink game-data service
//
//  2. Storage:
//     - Sheets: the Google Spreadsheet that holds the guild/player tables
//
//  3. Engine:
//     - Sync: run interval, guild filter, catalog exclusions
//
//  4. Observability:
//     - Ops: health/metrics HTTP listener
//     - Logging: log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Comlink ComlinkConfig `koanf:"comlink"`
	Sheets  SheetsConfig  `koanf:"sheets"`
	Sync    SyncConfig    `koanf:"sync"`
	Ops     OpsConfig     `koanf:"ops"`
	Logging LoggingConfig `koanf:"logging"`
}

// ComlinkConfig holds connection settings for the SWGOH Comlink service.
//
// Comlink is a self-hosted HTTP proxy for the game's data API. All requests
// are JSON POSTs; transient failures (network errors, 5xx, 429) are retried
// with exponential backoff up to RetryAttempts.
//
// Environment Variables:
//   - COMLINK_URL: base URL, e.g. http://swgoh-comlink:3000
//   - COMLINK_TIMEOUT: per-request timeout (default: 45s)
//   - COMLINK_RETRY_ATTEMPTS: retry budget per call (default: 8)
//   - COMLINK_RETRY_BASE_DELAY: first backoff delay (default: 1s)
//   - COMLINK_RATE_LIMIT: client-side requests per second (default: 10)
//   - COMLINK_RATE_BURST: rate limiter burst size (default: 5)
type ComlinkConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RateLimit      float64       `koanf:"rate_limit"`
	RateBurst      int           `koanf:"rate_burst"`
}

// SheetsConfig holds the Google Sheets connection and worksheet layout.
//
// The spreadsheet is operator-curated: the engine only rewrites the columns
// and rows it owns, and worksheet names are configurable because operators
// rename tabs.
//
// Environment Variables:
//   - SHEETS_SPREADSHEET_ID: spreadsheet key from the document URL (required)
//   - SHEETS_CREDENTIALS_FILE: path to a service-account JSON key file
//   - SHEETS_WRITE_CHUNK_SIZE: rows per write request (default: 500)
//   - SHEETS_TABLES_GUILDS, SHEETS_TABLES_PLAYERS, ...: worksheet names
type SheetsConfig struct {
	SpreadsheetID   string           `koanf:"spreadsheet_id"`
	CredentialsFile string           `koanf:"credentials_file"`
	WriteChunkSize  int              `koanf:"write_chunk_size"`
	Tables          TableNamesConfig `koanf:"tables"`
}

// TableNamesConfig maps logical tables to worksheet titles.
// Defaults match the original spreadsheet layout.
type TableNamesConfig struct {
	Guilds       string `koanf:"guilds"`
	Players      string `koanf:"players"`
	PlayerUnits  string `koanf:"player_units"`
	PlayerSkills string `koanf:"player_skills"`
	Characters   string `koanf:"characters"`
	Ships        string `koanf:"ships"`
	Zetas        string `koanf:"zetas"`
	Omicrons     string `koanf:"omicrons"`
}

// SyncConfig holds the synchronization engine settings.
//
// Environment Variables:
//   - SYNC_INTERVAL: time between periodic runs (default: 12h)
//   - SYNC_RUN_ON_STARTUP: run a sync immediately on start (default: true)
//   - SYNC_SKIP_IF_SYNCED_TODAY: skip guilds whose Last Update is today (default: false)
//   - SYNC_GUILD_IDS: comma-separated guild-id filter (default: all from sheet)
//   - SYNC_EXCLUDE_BASE_ID_CONTAINS: comma-separated substrings; catalog
//     entries whose base id contains one are dropped
//   - SYNC_TIMEZONE: IANA zone for the synced-today guard (default: Europe/Madrid)
type SyncConfig struct {
	Interval              time.Duration `koanf:"interval"`
	RunOnStartup          bool          `koanf:"run_on_startup"`
	SkipIfSyncedToday     bool          `koanf:"skip_if_synced_today"`
	GuildIDs              []string      `koanf:"guild_ids"`
	ExcludeBaseIDContains []string      `koanf:"exclude_base_id_contains"`
	Timezone              string        `koanf:"timezone"`
}

// OpsConfig holds the operational HTTP listener settings (health + metrics).
//
// Environment Variables:
//   - OPS_ENABLED: expose /healthz and /metrics (default: true)
//   - OPS_ADDR: listen address (default: 127.0.0.1:9108)
type OpsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
