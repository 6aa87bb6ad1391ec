// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package geoip

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/models"
)

// BreakerProvider wraps a Provider with a circuit breaker so a failing
// external service stops receiving lookups for a cool-down period instead
// of delaying every request.
//
// The breaker uses real time for its interval and timeout calculations;
// tests should exercise the wrapped provider directly.
type BreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[*models.Geolocation]
}

// WithBreaker wraps the provider with a circuit breaker.
// The circuit opens after a 60% failure rate across at least 10 requests
// and stays open for 2 minutes before probing again.
func WithBreaker(provider Provider) *BreakerProvider {
	cb := gobreaker.NewCircuitBreaker[*models.Geolocation](gobreaker.Settings{
		Name:        provider.Name(),
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("GeoIP provider circuit breaker state change")
		},
	})

	return &BreakerProvider{provider: provider, cb: cb}
}

// Name returns the wrapped provider's name.
func (b *BreakerProvider) Name() string {
	return b.provider.Name()
}

// IsAvailable reports the wrapped provider's availability.
func (b *BreakerProvider) IsAvailable() bool {
	return b.provider.IsAvailable()
}

// Lookup executes the lookup through the circuit breaker.
func (b *BreakerProvider) Lookup(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	return b.cb.Execute(func() (*models.Geolocation, error) {
		return b.provider.Lookup(ctx, ipAddress)
	})
}
