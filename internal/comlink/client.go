// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package comlink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
	"github.com/aruizcam/rostersync/internal/models/comlink"
)

// Service is the game-data contract the sync orchestrator depends on.
// Implemented by Client and by the circuit-breaker wrapper.
type Service interface {
	FetchMetadata(ctx context.Context) (*comlink.MetadataResponse, error)
	FetchDataItems(ctx context.Context, version, items string) (*comlink.DataResponse, error)
	FetchGuild(ctx context.Context, guildID string) (*comlink.GuildResponse, error)
	FetchPlayer(ctx context.Context, playerID string) (*comlink.PlayerResponse, error)
}

// Client handles communication with a self-hosted SWGOH Comlink service.
//
// All Comlink endpoints are JSON POSTs. The client provides:
//   - Per-request timeout from configuration
//   - Bounded exponential retry on transient failures (network errors,
//     HTTP 5xx, HTTP 429) via cenkalti/backoff
//   - Client-side rate limiting shared across all endpoints
//   - Typed response structs with version-drift-tolerant field resolution
//
// Retry exhaustion surfaces as an error for that one call; the caller decides
// whether it fails a guild, a member, or the run.
//
// Thread Safety: Safe for concurrent use. Each request creates its own HTTP request.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
}

// NewClient creates a Comlink client from configuration.
func NewClient(cfg *config.ComlinkConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxAttempts: cfg.RetryAttempts,
		baseDelay:   cfg.RetryBaseDelay,
	}
}

// statusError is an HTTP failure carrying the status code so the retry loop
// can classify it.
type statusError struct {
	endpoint string
	code     int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.endpoint, e.code, e.body)
}

// isTransient reports whether an error should be retried: network-level
// failures, 5xx, and 429. Other 4xx codes are contract errors and retrying
// them only burns the budget.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	// Anything that is not an HTTP status failure is a transport problem.
	return true
}

// postJSON POSTs a request body to a Comlink endpoint and decodes the JSON
// response into result, retrying transient failures with exponential backoff
// up to the configured attempt budget.
func (c *Client) postJSON(ctx context.Context, endpoint string, reqBody any, result any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}

	start := time.Now()
	attempt := 0

	operation := func() error {
		if attempt > 0 {
			metrics.RecordComlinkRetry(endpoint)
			logging.Debug().Str("endpoint", endpoint).Int("attempt", attempt).Msg("Retrying Comlink request")
		}
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create %s request: %w", endpoint, err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%s request failed: %w", endpoint, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &statusError{endpoint: endpoint, code: resp.StatusCode, body: strings.TrimSpace(string(body))}
			if !isTransient(serr) {
				return backoff.Permanent(serr)
			}
			return serr
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode %s response: %w", endpoint, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.MaxElapsedTime = 0 // Bounded by attempt count, not wall clock.

	err = backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx))

	metrics.RecordComlinkRequest(endpoint, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("comlink %s exhausted after %d attempts: %w", endpoint, attempt, err)
	}
	return nil
}

// FetchMetadata retrieves game metadata. Only the latest game-data version is
// consumed downstream.
func (c *Client) FetchMetadata(ctx context.Context) (*comlink.MetadataResponse, error) {
	body := map[string]any{
		"payload": map[string]any{},
		"enums":   false,
	}
	var out comlink.MetadataResponse
	if err := c.postJSON(ctx, "/metadata", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchDataItems retrieves a game-data catalog segment for a pinned version.
// requestSegment and items are mutually exclusive on the wire; requestSegment
// is always 0 here and items selects the collection.
func (c *Client) FetchDataItems(ctx context.Context, version, items string) (*comlink.DataResponse, error) {
	body := map[string]any{
		"payload": map[string]any{
			"version":         version,
			"includePveUnits": false,
			"devicePlatform":  "Android",
			"requestSegment":  0,
			"items":           items,
		},
		"enums": false,
	}
	var out comlink.DataResponse
	if err := c.postJSON(ctx, "/data", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchGuild retrieves a guild profile and member list by guild id.
func (c *Client) FetchGuild(ctx context.Context, guildID string) (*comlink.GuildResponse, error) {
	gid := strings.TrimSpace(guildID)
	if gid == "" {
		return nil, errors.New("fetch guild requires a guild id")
	}
	body := map[string]any{
		"payload": map[string]any{
			"guildId":                        gid,
			"includeRecentGuildActivityInfo": true,
		},
		"enums": false,
	}
	var out comlink.GuildResponse
	if err := c.postJSON(ctx, "/guild", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPlayer retrieves a player's full roster by player id. Lookups are
// always by playerId, never by ally code.
func (c *Client) FetchPlayer(ctx context.Context, playerID string) (*comlink.PlayerResponse, error) {
	pid := strings.TrimSpace(playerID)
	if pid == "" {
		return nil, errors.New("fetch player requires a player id")
	}
	body := map[string]any{
		"payload": map[string]any{"playerId": pid},
		"enums":   false,
	}
	var out comlink.PlayerResponse
	if err := c.postJSON(ctx, "/player", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
