// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
// Validation failures here are the "global misconfiguration" class: the run
// aborts before any guild is processed.
func (c *Config) Validate() error {
	if err := c.validateComlink(); err != nil {
		return err
	}

	if err := c.validateSheets(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateComlink validates the Comlink data-service configuration.
func (c *Config) validateComlink() error {
	if c.Comlink.URL == "" {
		return fmt.Errorf("COMLINK_URL is required")
	}
	if err := validateHTTPURL(c.Comlink.URL, "COMLINK_URL"); err != nil {
		return err
	}
	if c.Comlink.RetryAttempts < 1 {
		return fmt.Errorf("COMLINK_RETRY_ATTEMPTS must be at least 1, got %d", c.Comlink.RetryAttempts)
	}
	if c.Comlink.RetryBaseDelay <= 0 {
		return fmt.Errorf("COMLINK_RETRY_BASE_DELAY must be positive, got %s", c.Comlink.RetryBaseDelay)
	}
	if c.Comlink.Timeout <= 0 {
		return fmt.Errorf("COMLINK_TIMEOUT must be positive, got %s", c.Comlink.Timeout)
	}
	if c.Comlink.RateLimit <= 0 {
		return fmt.Errorf("COMLINK_RATE_LIMIT must be positive, got %f", c.Comlink.RateLimit)
	}
	return nil
}

// validateSheets validates the tabular store configuration.
func (c *Config) validateSheets() error {
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID is required")
	}
	if c.Sheets.WriteChunkSize < 1 {
		return fmt.Errorf("SHEETS_WRITE_CHUNK_SIZE must be at least 1, got %d", c.Sheets.WriteChunkSize)
	}

	names := map[string]string{
		"guilds":        c.Sheets.Tables.Guilds,
		"players":       c.Sheets.Tables.Players,
		"player_units":  c.Sheets.Tables.PlayerUnits,
		"player_skills": c.Sheets.Tables.PlayerSkills,
	}
	for key, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("sheets.tables.%s must not be empty", key)
		}
	}
	return nil
}

// validateSync validates the engine settings.
func (c *Config) validateSync() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.Sync.Interval)
	}
	if c.Sync.Timezone != "" {
		if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
			return fmt.Errorf("SYNC_TIMEZONE is invalid: %w", err)
		}
	}
	return nil
}

// validateLogging validates the logging configuration.
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal/panic, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value parses as an absolute http(s) URL.
func validateHTTPURL(value, name string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
