// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package objstore

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/audiomaps/sonosphere/internal/logging"
	"github.com/audiomaps/sonosphere/internal/metrics"
)

// BreakerStore wraps an ObjectStore with circuit breaker protection so a
// flapping endpoint fails fast instead of stalling every load request.
//
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 1 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 5 requests
type BreakerStore struct {
	inner ObjectStore
	cb    *gobreaker.CircuitBreaker[[]byte]
	name  string
}

// NewBreakerStore wraps an object store with a named circuit breaker.
// ErrNotFound is treated as success: a missing object is a client
// problem, not endpoint degradation, and must not trip the breaker.
func NewBreakerStore(inner ObjectStore) *BreakerStore {
	cbName := "objstore"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening object store circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] Object store state transition")
			metrics.RecordCircuitBreakerState(name, stateToInt(to))
		},
	})

	return &BreakerStore{inner: inner, cb: cb, name: cbName}
}

// Fetch fetches through the breaker. When the circuit is open the call
// fails immediately with gobreaker.ErrOpenState.
func (s *BreakerStore) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	data, err := s.cb.Execute(func() ([]byte, error) {
		return s.inner.Fetch(ctx, bucket, object)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordCircuitBreakerRequest(s.name, "rejected")
		} else if !errors.Is(err, ErrNotFound) {
			metrics.RecordCircuitBreakerRequest(s.name, "failure")
		}
		return nil, err
	}
	metrics.RecordCircuitBreakerRequest(s.name, "success")
	return data, nil
}

// Stat delegates to the wrapped store. Stat calls are cheap metadata
// lookups made before a Fetch; the Fetch itself carries the breaker.
func (s *BreakerStore) Stat(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	return s.inner.Stat(ctx, bucket, object)
}

// Health delegates to the wrapped store without breaker protection so
// readiness probes always observe the real endpoint state.
func (s *BreakerStore) Health(ctx context.Context) error {
	return s.inner.Health(ctx)
}

// State returns the current breaker state for observability.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
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

func stateToInt(state gobreaker.State) int {
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
