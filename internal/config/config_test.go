// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValidExceptRequiredFields(t *testing.T) {
	cfg := defaultConfig()

	// Defaults alone must fail validation only on the required fields.
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing COMLINK_URL")
	}
	if !strings.Contains(err.Error(), "COMLINK_URL") {
		t.Errorf("expected COMLINK_URL error first, got: %v", err)
	}

	cfg.Comlink.URL = "http://swgoh-comlink:3000"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SHEETS_SPREADSHEET_ID") {
		t.Errorf("expected SHEETS_SPREADSHEET_ID error, got: %v", err)
	}

	cfg.Sheets.SpreadsheetID = "1abcDEF"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestDefaultTableNames(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		got  string
		want string
	}{
		{cfg.Sheets.Tables.Guilds, "Guilds"},
		{cfg.Sheets.Tables.Players, "Players"},
		{cfg.Sheets.Tables.PlayerUnits, "Player_Units"},
		{cfg.Sheets.Tables.PlayerSkills, "Player_Skills"},
		{cfg.Sheets.Tables.Characters, "Characters"},
		{cfg.Sheets.Tables.Ships, "Ships"},
		{cfg.Sheets.Tables.Zetas, "CharactersZetas"},
		{cfg.Sheets.Tables.Omicrons, "CharactersOmicrons"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("default table name = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"COMLINK_URL", "comlink.url"},
		{"COMLINK_RETRY_ATTEMPTS", "comlink.retry_attempts"},
		{"SHEETS_SPREADSHEET_ID", "sheets.spreadsheet_id"},
		{"SHEETS_TABLES_GUILDS", "sheets.tables.guilds"},
		{"SHEETS_TABLES_PLAYER_UNITS", "sheets.tables.player_units"},
		{"SYNC_GUILD_IDS", "sync.guild_ids"},
		{"SYNC_EXCLUDE_BASE_ID_CONTAINS", "sync.exclude_base_id_contains"},
		{"OPS_ADDR", "ops.addr"},
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},
		// Legacy names are handled by applyLegacyEnv, not this layer
		{"COMLINK_BASE", ""},
		{"COMLINK_BASE_URL", ""},
		{"SPREADSHEET_ID", ""},
		{"SHEET_PLAYER_UNITS", ""},
		{"EXCLUDE_BASEID_CONTAINS", ""},
		{"TIMEZONE", ""},
		{"HTTP_RETRIES", ""},
		// Unrelated env noise must be dropped
		{"PATH", ""},
		{"HOME", ""},
		{"GOOGLE_APPLICATION_SOMETHING", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COMLINK_URL", "http://comlink.local:3200")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-key-1")
	t.Setenv("SYNC_GUILD_IDS", "G1, G2 ,G3")
	t.Setenv("SYNC_EXCLUDE_BASE_ID_CONTAINS", "PVE_,EVENT_")
	t.Setenv("SYNC_INTERVAL", "6h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Comlink.URL != "http://comlink.local:3200" {
		t.Errorf("Comlink.URL = %q", cfg.Comlink.URL)
	}
	if cfg.Sheets.SpreadsheetID != "sheet-key-1" {
		t.Errorf("Sheets.SpreadsheetID = %q", cfg.Sheets.SpreadsheetID)
	}
	if len(cfg.Sync.GuildIDs) != 3 || cfg.Sync.GuildIDs[1] != "G2" {
		t.Errorf("Sync.GuildIDs = %v, want [G1 G2 G3]", cfg.Sync.GuildIDs)
	}
	if len(cfg.Sync.ExcludeBaseIDContains) != 2 || cfg.Sync.ExcludeBaseIDContains[0] != "PVE_" {
		t.Errorf("Sync.ExcludeBaseIDContains = %v", cfg.Sync.ExcludeBaseIDContains)
	}
	if cfg.Sync.Interval != 6*time.Hour {
		t.Errorf("Sync.Interval = %s, want 6h", cfg.Sync.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Untouched settings keep their defaults.
	if cfg.Comlink.RetryAttempts != 8 {
		t.Errorf("Comlink.RetryAttempts = %d, want default 8", cfg.Comlink.RetryAttempts)
	}
	if cfg.Sheets.WriteChunkSize != 500 {
		t.Errorf("Sheets.WriteChunkSize = %d, want default 500", cfg.Sheets.WriteChunkSize)
	}
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("COMLINK_BASE", "http://legacy-comlink:3000")
	t.Setenv("SPREADSHEET_ID", "legacy-sheet")
	t.Setenv("EXCLUDE_BASEID_CONTAINS", "TB_,GL_EVENT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Comlink.URL != "http://legacy-comlink:3000" {
		t.Errorf("Comlink.URL = %q", cfg.Comlink.URL)
	}
	if cfg.Sheets.SpreadsheetID != "legacy-sheet" {
		t.Errorf("Sheets.SpreadsheetID = %q", cfg.Sheets.SpreadsheetID)
	}
	if len(cfg.Sync.ExcludeBaseIDContains) != 2 {
		t.Errorf("Sync.ExcludeBaseIDContains = %v", cfg.Sync.ExcludeBaseIDContains)
	}
}

func TestLoadCurrentEnvNameBeatsLegacy(t *testing.T) {
	t.Setenv("COMLINK_BASE", "http://legacy-comlink:3000")
	t.Setenv("COMLINK_URL", "http://comlink.local:3200")
	t.Setenv("SPREADSHEET_ID", "legacy-sheet")
	t.Setenv("SHEETS_SPREADSHEET_ID", "current-sheet")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Comlink.URL != "http://comlink.local:3200" {
		t.Errorf("Comlink.URL = %q, want current name to win", cfg.Comlink.URL)
	}
	if cfg.Sheets.SpreadsheetID != "current-sheet" {
		t.Errorf("Sheets.SpreadsheetID = %q, want current name to win", cfg.Sheets.SpreadsheetID)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Comlink.URL = "http://comlink:3000"
		cfg.Sheets.SpreadsheetID = "key"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"ftp url", func(c *Config) { c.Comlink.URL = "ftp://host" }, "http or https"},
		{"zero retries", func(c *Config) { c.Comlink.RetryAttempts = 0 }, "COMLINK_RETRY_ATTEMPTS"},
		{"negative timeout", func(c *Config) { c.Comlink.Timeout = -time.Second }, "COMLINK_TIMEOUT"},
		{"zero chunk", func(c *Config) { c.Sheets.WriteChunkSize = 0 }, "SHEETS_WRITE_CHUNK_SIZE"},
		{"empty players table", func(c *Config) { c.Sheets.Tables.Players = " " }, "sheets.tables.players"},
		{"zero interval", func(c *Config) { c.Sync.Interval = 0 }, "SYNC_INTERVAL"},
		{"bad zone", func(c *Config) { c.Sync.Timezone = "Mars/Olympus" }, "SYNC_TIMEZONE"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q does not mention %q", err, tt.errSub)
			}
		})
	}
}
