// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf, Timestamp: true})
	defer Init(DefaultConfig())

	Info().Str("guild_id", "abc123").Msg("sync started")

	out := buf.String()
	if !strings.Contains(out, `"guild_id":"abc123"`) {
		t.Errorf("expected structured field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"sync started"`) {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Warn().Int("attempt", 3).Msg("retrying")

	out := buf.String()
	if !strings.Contains(out, `"attempt":3`) {
		t.Errorf("expected attempt field, got: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", out)
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	slogger := slog.New(handler)

	slogger.Info("service started", "service", "sync-manager", "restarts", int64(2))

	out := buf.String()
	if !strings.Contains(out, `"service":"sync-manager"`) {
		t.Errorf("expected service attr, got: %s", out)
	}
	if !strings.Contains(out, `"restarts":2`) {
		t.Errorf("expected restarts attr, got: %s", out)
	}
	if !strings.Contains(out, `"message":"service started"`) {
		t.Errorf("expected message, got: %s", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	slogger := slog.New(handler).WithGroup("supervisor")

	slogger.Warn("service failed", "name", "ops-server")

	if !strings.Contains(buf.String(), `"supervisor.name":"ops-server"`) {
		t.Errorf("expected grouped attr key, got: %s", buf.String())
	}
}
