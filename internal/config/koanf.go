// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rostersync/config.yaml",
	"/etc/rostersync/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Comlink: ComlinkConfig{
			URL:            "",
			Timeout:        45 * time.Second,
			RetryAttempts:  8,
			RetryBaseDelay: 1 * time.Second,
			RateLimit:      10,
			RateBurst:      5,
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   "",
			CredentialsFile: "credentials.json",
			WriteChunkSize:  500,
			Tables: TableNamesConfig{
				Guilds:       "Guilds",
				Players:      "Players",
				PlayerUnits:  "Player_Units",
				PlayerSkills: "Player_Skills",
				Characters:   "Characters",
				Ships:        "Ships",
				Zetas:        "CharactersZetas",
				Omicrons:     "CharactersOmicrons",
			},
		},
		Sync: SyncConfig{
			Interval:              12 * time.Hour,
			RunOnStartup:          true,
			SkipIfSyncedToday:     false,
			GuildIDs:              nil,
			ExcludeBaseIDContains: nil,
			Timezone:              "Europe/Madrid",
		},
		Ops: OpsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9108",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
//   - Backward compatibility with the environment variables the original
//     deployment used (COMLINK_BASE, SPREADSHEET_ID, SHEET_GUILDS, ...)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority). Legacy names
	// are applied first, then the current names in their own layer, so
	// COMLINK_URL beats COMLINK_BASE when both are set.
	if err := applyLegacyEnv(k); err != nil {
		return nil, err
	}
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"sync.guild_ids",
	"sync.exclude_base_id_contains",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. This is necessary because env vars come in as strings, but the
// config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// legacyEnvVars maps the environment variable names the original deployment
// used to the new nested configuration paths. They are applied by
// applyLegacyEnv before the main env layer, so the current names always win
// when both are present.
var legacyEnvVars = map[string]string{
	"COMLINK_BASE":              "comlink.url",
	"COMLINK_BASE_URL":          "comlink.url",
	"SPREADSHEET_ID":            "sheets.spreadsheet_id",
	"GOOGLE_CREDENTIALS_FILE":   "sheets.credentials_file",
	"SHEET_GUILDS":              "sheets.tables.guilds",
	"SHEET_PLAYERS":             "sheets.tables.players",
	"SHEET_PLAYER_UNITS":        "sheets.tables.player_units",
	"SHEET_PLAYER_SKILLS":       "sheets.tables.player_skills",
	"SHEET_CHARACTERS":          "sheets.tables.characters",
	"SHEET_SHIPS":               "sheets.tables.ships",
	"SHEET_CHARACTERS_ZETAS":    "sheets.tables.zetas",
	"SHEET_CHARACTERS_OMICRONS": "sheets.tables.omicrons",
	"EXCLUDE_BASEID_CONTAINS":   "sync.exclude_base_id_contains",
	"TIMEZONE":                  "sync.timezone",
	"HTTP_RETRIES":              "comlink.retry_attempts",
}

// applyLegacyEnv copies set legacy environment variables onto their config
// paths. Runs before the main env layer, which drops the legacy names, so
// the layering decides precedence rather than map iteration order.
func applyLegacyEnv(k *koanf.Koanf) error {
	for name, path := range legacyEnvVars {
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if err := k.Set(path, val); err != nil {
			return fmt.Errorf("failed to apply legacy variable %s: %w", name, err)
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Variables outside the known prefixes are dropped (returning "" skips the key),
// so unrelated environment noise never leaks into the configuration tree.
//
// Examples:
//   - COMLINK_URL -> comlink.url
//   - SHEETS_SPREADSHEET_ID -> sheets.spreadsheet_id
//   - SHEETS_TABLES_GUILDS -> sheets.tables.guilds
//   - SYNC_GUILD_IDS -> sync.guild_ids
//   - LOG_LEVEL -> logging.level
//   - COMLINK_BASE (legacy) -> dropped; applied earlier by applyLegacyEnv
func envTransformFunc(key string) string {
	if _, ok := legacyEnvVars[key]; ok {
		return ""
	}

	lower := strings.ToLower(key)

	switch {
	case strings.HasPrefix(lower, "comlink_"):
		return "comlink." + strings.TrimPrefix(lower, "comlink_")
	case strings.HasPrefix(lower, "sheets_tables_"):
		return "sheets.tables." + strings.TrimPrefix(lower, "sheets_tables_")
	case strings.HasPrefix(lower, "sheets_"):
		return "sheets." + strings.TrimPrefix(lower, "sheets_")
	case strings.HasPrefix(lower, "sync_"):
		return "sync." + strings.TrimPrefix(lower, "sync_")
	case strings.HasPrefix(lower, "ops_"):
		return "ops." + strings.TrimPrefix(lower, "ops_")
	case strings.HasPrefix(lower, "logging_"):
		return "logging." + strings.TrimPrefix(lower, "logging_")
	case strings.HasPrefix(lower, "log_"):
		return "logging." + strings.TrimPrefix(lower, "log_")
	default:
		return ""
	}
}
