// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vigil-monitoring/vigil/internal/geoip"
	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/models"
)

const clientInfoKey contextKey = "client_info"

// GeoResolver is the geolocation lookup the client IP middleware consults
// for routable addresses.
type GeoResolver interface {
	Resolve(ctx context.Context, ipAddress string) (*models.Geolocation, error)
}

// ClientIP derives a canonical client address (and, when routable, a
// geolocation) for every request and attaches it to the context before any
// handler runs. Resolution is total: it never fails, aborts, or delays the
// request. The resolver may be nil to disable geolocation entirely.
func ClientIP(resolver GeoResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := resolveClientInfo(r, resolver)
			ctx := context.WithValue(r.Context(), clientInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientInfoFromContext returns the resolved client info, or a fallback
// with address "unknown" if the middleware did not run.
func ClientInfoFromContext(ctx context.Context) *models.ClientInfo {
	if info, ok := ctx.Value(clientInfoKey).(*models.ClientInfo); ok {
		return info
	}
	return &models.ClientInfo{IPAddress: "unknown"}
}

// resolveClientInfo is the total resolution function. A panic anywhere
// inside resolution is caught here; the request proceeds with the address
// forced to "error" and no geolocation.
func resolveClientInfo(r *http.Request, resolver GeoResolver) (info *models.ClientInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().Interface("panic", rec).Msg("Client address resolution panicked")
			info = &models.ClientInfo{IPAddress: "error", UserAgent: r.UserAgent()}
		}
	}()

	addr := normalizeAddress(candidateAddress(r))
	if addr == "" {
		addr = "unknown"
	}

	info = &models.ClientInfo{
		IPAddress: addr,
		UserAgent: r.UserAgent(),
	}

	if resolver != nil && isRoutable(addr) {
		geo, err := resolver.Resolve(r.Context(), addr)
		if err != nil {
			logging.Debug().Err(err).Str("ip", addr).Msg("Geolocation lookup failed")
		} else {
			info.Geolocation = geo
		}
	}

	return info
}

// candidateAddress picks the raw client address in priority order:
// X-Forwarded-For (first entry), X-Real-IP, then the transport peer.
func candidateAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The leftmost entry is the original client by proxy-chain convention.
		if idx := strings.Index(xff, ","); idx != -1 {
			xff = xff[:idx]
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return geoip.StripPort(r.RemoteAddr)
}

// normalizeAddress canonicalizes loopback spellings and strips the
// IPv4-mapped IPv6 prefix.
func normalizeAddress(addr string) string {
	switch addr {
	case "::1", "::ffff:127.0.0.1":
		return "127.0.0.1"
	}
	return strings.TrimPrefix(addr, "::ffff:")
}

// isRoutable reports whether the address is worth a geolocation lookup.
func isRoutable(addr string) bool {
	switch addr {
	case "127.0.0.1", "localhost", "unknown", "error", "":
		return false
	}
	return true
}
