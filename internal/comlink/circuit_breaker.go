// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package comlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aruizcam/rostersync/internal/config"
	"github.com/aruizcam/rostersync/internal/logging"
	"github.com/aruizcam/rostersync/internal/metrics"
	"github.com/aruizcam/rostersync/internal/models/comlink"
)

// CircuitBreakerClient wraps Client with the circuit breaker pattern so a
// down or degraded Comlink instance stops consuming the retry budget of every
// guild and member in the run.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout calculations. Tests should exercise the wrapped client
// directly rather than waiting out breaker state transitions.
type CircuitBreakerClient struct {
	client Service
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient creates a Comlink client with circuit breaker.
// Breaker configuration:
// - Max 1 request in half-open state (the engine is strictly sequential)
// - 1 minute measurement window
// - 1 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 5 requests
func NewCircuitBreakerClient(cfg *config.ComlinkConfig) *CircuitBreakerClient {
	return wrapWithBreaker(NewClient(cfg))
}

func wrapWithBreaker(client Service) *CircuitBreakerClient {
	cbName := "comlink-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a Comlink call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FetchMetadata retrieves game metadata with circuit breaker protection.
func (cbc *CircuitBreakerClient) FetchMetadata(ctx context.Context) (*comlink.MetadataResponse, error) {
	return castResult[comlink.MetadataResponse](cbc.execute(func() (any, error) {
		return cbc.client.FetchMetadata(ctx)
	}))
}

// FetchDataItems retrieves a catalog segment with circuit breaker protection.
func (cbc *CircuitBreakerClient) FetchDataItems(ctx context.Context, version, items string) (*comlink.DataResponse, error) {
	return castResult[comlink.DataResponse](cbc.execute(func() (any, error) {
		return cbc.client.FetchDataItems(ctx, version, items)
	}))
}

// FetchGuild retrieves a guild with circuit breaker protection.
func (cbc *CircuitBreakerClient) FetchGuild(ctx context.Context, guildID string) (*comlink.GuildResponse, error) {
	return castResult[comlink.GuildResponse](cbc.execute(func() (any, error) {
		return cbc.client.FetchGuild(ctx, guildID)
	}))
}

// FetchPlayer retrieves a player roster with circuit breaker protection.
func (cbc *CircuitBreakerClient) FetchPlayer(ctx context.Context, playerID string) (*comlink.PlayerResponse, error) {
	return castResult[comlink.PlayerResponse](cbc.execute(func() (any, error) {
		return cbc.client.FetchPlayer(ctx, playerID)
	}))
}
