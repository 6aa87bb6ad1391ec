// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package geoip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vigil-monitoring/vigil/internal/models"
)

type stubProvider struct {
	name      string
	available bool
	geo       *models.Geolocation
	err       error
	calls     int
}

func (s *stubProvider) Lookup(_ context.Context, ip string) (*models.Geolocation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	geo := *s.geo
	geo.IPAddress = ip
	return &geo, nil
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }

type memCache struct {
	mu      sync.Mutex
	entries map[string]*models.Geolocation
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*models.Geolocation)}
}

func (c *memCache) Get(_ context.Context, ip string) (*models.Geolocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[ip], nil
}

func (c *memCache) Set(geo *models.Geolocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[geo.IPAddress] = geo
	return nil
}

func TestResolvePrivateIPShortCircuits(t *testing.T) {
	provider := &stubProvider{name: "stub", available: true, geo: &models.Geolocation{Country: "US"}}
	resolver := NewResolver(nil, provider)

	tests := []string{"192.168.1.10", "10.0.0.5", "172.16.0.1", "127.0.0.1", "169.254.1.1", "::1"}
	for _, ip := range tests {
		geo, err := resolver.Resolve(context.Background(), ip)
		if err != nil {
			t.Errorf("Resolve(%s): unexpected error: %v", ip, err)
			continue
		}
		if geo.Country != "Local" {
			t.Errorf("Resolve(%s): expected Local country, got %q", ip, geo.Country)
		}
	}
	if provider.calls != 0 {
		t.Errorf("expected no provider calls for private IPs, got %d", provider.calls)
	}
}

func TestResolveCacheFirst(t *testing.T) {
	cache := newMemCache()
	cached := &models.Geolocation{IPAddress: "203.0.113.9", Country: "DE", LastUpdated: time.Now()}
	if err := cache.Set(cached); err != nil {
		t.Fatalf("cache set failed: %v", err)
	}

	provider := &stubProvider{name: "stub", available: true, geo: &models.Geolocation{Country: "US"}}
	resolver := NewResolver(cache, provider)

	geo, err := resolver.Resolve(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geo.Country != "DE" {
		t.Errorf("expected cached country DE, got %q", geo.Country)
	}
	if provider.calls != 0 {
		t.Errorf("expected cache hit to skip providers, got %d calls", provider.calls)
	}
}

func TestResolveProviderFallback(t *testing.T) {
	failing := &stubProvider{name: "primary", available: true, err: errors.New("quota exhausted")}
	working := &stubProvider{name: "secondary", available: true, geo: &models.Geolocation{Country: "NL"}}
	unavailable := &stubProvider{name: "unconfigured", available: false, geo: &models.Geolocation{Country: "XX"}}

	cache := newMemCache()
	resolver := NewResolver(cache, unavailable, failing, working)

	geo, err := resolver.Resolve(context.Background(), "203.0.113.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geo.Country != "NL" {
		t.Errorf("expected fallback provider result NL, got %q", geo.Country)
	}
	if unavailable.calls != 0 {
		t.Error("unavailable provider should be skipped")
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Errorf("expected 1 call each to primary and secondary, got %d/%d", failing.calls, working.calls)
	}

	// Successful lookup should be cached for next time
	if cachedGeo, _ := cache.Get(context.Background(), "203.0.113.50"); cachedGeo == nil {
		t.Error("expected successful lookup to be cached")
	}
}

func TestResolveAllProvidersFail(t *testing.T) {
	failing := &stubProvider{name: "only", available: true, err: errors.New("unreachable")}
	resolver := NewResolver(nil, failing)

	if _, err := resolver.Resolve(context.Background(), "203.0.113.77"); err == nil {
		t.Error("expected error when all providers fail")
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.5", true},
		{"192.168.0.1", true},
		{"127.0.0.1", true},
		{"169.254.0.10", true},
		{"::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"203.0.113.1", false},
		{"2001:db8::1", false},
		{"not-an-ip", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPrivateIP(tt.ip); got != tt.private {
			t.Errorf("IsPrivateIP(%q) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}

func TestStripPort(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.0.2.1:8080", "192.0.2.1"},
		{"192.0.2.1", "192.0.2.1"},
		{"[::1]:8080", "::1"},
		{"[2001:db8::1]", "2001:db8::1"},
		{"::1", "::1"},
		{"2001:db8::1", "2001:db8::1"},
	}

	for _, tt := range tests {
		if got := StripPort(tt.input); got != tt.expected {
			t.Errorf("StripPort(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLocalGeolocation(t *testing.T) {
	geo := LocalGeolocation("192.168.1.1")

	if geo.Country != "Local" {
		t.Errorf("expected country 'Local', got %q", geo.Country)
	}
	if geo.City == nil || *geo.City != "Local Network" {
		t.Error("expected city 'Local Network'")
	}
	if geo.IPAddress != "192.168.1.1" {
		t.Errorf("expected ip preserved, got %q", geo.IPAddress)
	}
}
