// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package geoip

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/metrics"
	"github.com/vigil-monitoring/vigil/internal/models"
)

// Resolver resolves an IP to a geolocation with cache-first semantics and
// provider fallback. Providers are tried in order until one succeeds.
type Resolver struct {
	providers []Provider
	cache     Cache
}

// NewResolver creates a resolver with the given cache (may be nil) and
// providers.
func NewResolver(cache Cache, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, cache: cache}
}

// Resolve fetches geolocation for an IP, using the cache first, then the
// provider chain. Private and loopback addresses short-circuit to a local
// placeholder and never reach external providers.
func (r *Resolver) Resolve(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	ipAddress = StripPort(ipAddress)

	if IsPrivateIP(ipAddress) {
		geo := LocalGeolocation(ipAddress)
		r.cacheResult(geo)
		return geo, nil
	}

	if geo := r.tryCache(ctx, ipAddress); geo != nil {
		metrics.GeolocationCacheHits.Inc()
		return geo, nil
	}
	metrics.GeolocationCacheMisses.Inc()

	return r.tryProviders(ctx, ipAddress)
}

func (r *Resolver) tryCache(ctx context.Context, ipAddress string) *models.Geolocation {
	if r.cache == nil {
		return nil
	}
	geo, err := r.cache.Get(ctx, ipAddress)
	if err != nil {
		logging.Warn().Err(err).Str("ip", ipAddress).Msg("Geolocation cache read failed")
		return nil
	}
	return geo
}

func (r *Resolver) tryProviders(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	var lastErr error

	for _, provider := range r.providers {
		if !provider.IsAvailable() {
			continue
		}

		start := time.Now()
		geo, err := provider.Lookup(ctx, ipAddress)
		if err != nil {
			metrics.RecordGeolocationLookup(provider.Name(), "error", time.Since(start))
			logging.Debug().Err(err).Str("provider", provider.Name()).Str("ip", ipAddress).Msg("GeoIP provider failed")
			lastErr = err
			continue
		}

		metrics.RecordGeolocationLookup(provider.Name(), "success", time.Since(start))
		r.cacheResult(geo)
		return geo, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all GeoIP providers failed for %s: %w", ipAddress, lastErr)
	}
	return nil, fmt.Errorf("no GeoIP providers available")
}

func (r *Resolver) cacheResult(geo *models.Geolocation) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(geo); err != nil {
		logging.Warn().Err(err).Str("ip", geo.IPAddress).Msg("Failed to cache geolocation")
	}
}

// IsPrivateIP reports whether the address is in a private, loopback or
// link-local range. Such addresses cannot be geolocated externally.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// LocalGeolocation builds the placeholder entry used for private/LAN IPs.
// Marked with "Local" as the country so dashboards can filter them.
func LocalGeolocation(ipAddress string) *models.Geolocation {
	local := "Local Network"
	return &models.Geolocation{
		IPAddress:   ipAddress,
		Latitude:    0,
		Longitude:   0,
		Country:     "Local",
		City:        &local,
		LastUpdated: time.Now(),
	}
}

// StripPort removes a trailing :port from an address if one is present,
// handling both 192.0.2.1:443 and [::1]:443 forms. Bare IPv6 addresses
// pass through unchanged.
func StripPort(addr string) string {
	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return addr[1:idx]
		}
		return strings.Trim(addr, "[]")
	}

	// Only strip when it looks like host:port; a bare IPv6 address has
	// more than one colon.
	if strings.Count(addr, ":") == 1 {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
	}
	return addr
}
