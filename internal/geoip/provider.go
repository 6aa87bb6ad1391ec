// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Package geoip resolves client IP addresses to geographic locations.
// Lookups go through a TTL cache first, then a provider fallback chain
// (MaxMind GeoLite2 web service, then ip-api.com). Private and loopback
// addresses are never sent to external providers.
package geoip

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/vigil-monitoring/vigil/internal/models"
)

// Provider defines the interface for geolocation lookup services.
type Provider interface {
	// Lookup returns geolocation data for the given IP address.
	// Returns nil and an error if the lookup fails or the IP is invalid.
	Lookup(ctx context.Context, ipAddress string) (*models.Geolocation, error)

	// Name returns the provider name for logging and metrics.
	Name() string

	// IsAvailable checks if the provider is properly configured.
	IsAvailable() bool
}

// ========================================
// MaxMind GeoLite2 Provider
// ========================================

// MaxMindProvider implements Provider using MaxMind's GeoLite2 web service.
// Requires a free MaxMind account and license key.
// Rate limit: 1,000 lookups/day on the GeoLite2 free tier.
type MaxMindProvider struct {
	client     *http.Client
	accountID  string
	licenseKey string
	baseURL    string
}

type maxMindResponse struct {
	City struct {
		Names map[string]string `json:"names"`
	} `json:"city"`
	Country struct {
		ISOCode string            `json:"iso_code"`
		Names   map[string]string `json:"names"`
	} `json:"country"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		TimeZone  string  `json:"time_zone"`
	} `json:"location"`
	Postal struct {
		Code string `json:"code"`
	} `json:"postal"`
	Subdivisions []struct {
		ISOCode string            `json:"iso_code"`
		Names   map[string]string `json:"names"`
	} `json:"subdivisions"`
}

type maxMindErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// NewMaxMindProvider creates a MaxMind GeoLite2 provider. Credentials come
// from https://www.maxmind.com/en/account (account ID + license key).
func NewMaxMindProvider(accountID, licenseKey string) *MaxMindProvider {
	return &MaxMindProvider{
		client:     &http.Client{Timeout: 10 * time.Second},
		accountID:  accountID,
		licenseKey: licenseKey,
		baseURL:    "https://geolite.info/geoip/v2.1/city",
	}
}

// Name returns the provider name.
func (p *MaxMindProvider) Name() string {
	return "maxmind-geolite2"
}

// IsAvailable returns true if account ID and license key are configured.
func (p *MaxMindProvider) IsAvailable() bool {
	return p.accountID != "" && p.licenseKey != ""
}

// Lookup queries the MaxMind GeoLite2 web service.
func (p *MaxMindProvider) Lookup(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("MaxMind credentials not configured")
	}
	if ip := net.ParseIP(ipAddress); ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", ipAddress)
	}

	url := fmt.Sprintf("%s/%s", p.baseURL, ipAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// MaxMind uses Basic Auth with account ID as username
	req.SetBasicAuth(p.accountID, p.licenseKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query MaxMind: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp maxMindErrorResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&errResp); decErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("MaxMind error (%s): %s", errResp.Code, errResp.Error)
		}
		return nil, fmt.Errorf("MaxMind returned status %d", resp.StatusCode)
	}

	var result maxMindResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode MaxMind response: %w", err)
	}

	return convertMaxMindResponse(&result, ipAddress), nil
}

func convertMaxMindResponse(result *maxMindResponse, ipAddress string) *models.Geolocation {
	geo := &models.Geolocation{
		IPAddress:   ipAddress,
		Latitude:    result.Location.Latitude,
		Longitude:   result.Location.Longitude,
		Country:     result.Country.Names["en"],
		LastUpdated: time.Now(),
	}

	if cityName := result.City.Names["en"]; cityName != "" {
		geo.City = &cityName
	}
	if len(result.Subdivisions) > 0 {
		if regionName := result.Subdivisions[0].Names["en"]; regionName != "" {
			geo.Region = &regionName
		}
	}
	if result.Postal.Code != "" {
		geo.PostalCode = &result.Postal.Code
	}
	if result.Location.TimeZone != "" {
		geo.Timezone = &result.Location.TimeZone
	}

	return geo
}

// ========================================
// ip-api.com Provider (Free, No API Key)
// ========================================

// IPAPIProvider implements Provider using the free ip-api.com service.
// The free tier allows 45 requests per minute without an API key; the
// limiter rejects excess lookups locally so the account is not banned.
type IPAPIProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

type ipAPIResponse struct {
	Status     string  `json:"status"`  // "success" or "fail"
	Message    string  `json:"message"` // error detail when status is "fail"
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Zip        string  `json:"zip"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
	Query      string  `json:"query"`
}

// NewIPAPIProvider creates an ip-api.com provider with a 45 req/min limiter.
func NewIPAPIProvider() *IPAPIProvider {
	return &IPAPIProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/45), 45),
		baseURL: "http://ip-api.com/json",
	}
}

// Name returns the provider name.
func (p *IPAPIProvider) Name() string {
	return "ip-api.com"
}

// IsAvailable returns true; ip-api.com needs no credentials.
func (p *IPAPIProvider) IsAvailable() bool {
	return true
}

// Lookup queries ip-api.com for geolocation data.
func (p *IPAPIProvider) Lookup(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	if !p.limiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded for ip-api.com (45 req/min)")
	}
	if ip := net.ParseIP(ipAddress); ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", ipAddress)
	}

	url := fmt.Sprintf("%s/%s?fields=status,message,country,regionName,city,zip,lat,lon,timezone,query",
		p.baseURL, ipAddress)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query ip-api.com: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api.com returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ip-api.com response: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("ip-api.com lookup failed: %s", result.Message)
	}

	geo := &models.Geolocation{
		IPAddress:   ipAddress,
		Latitude:    result.Lat,
		Longitude:   result.Lon,
		Country:     result.Country,
		LastUpdated: time.Now(),
	}
	if result.City != "" {
		geo.City = &result.City
	}
	if result.RegionName != "" {
		geo.Region = &result.RegionName
	}
	if result.Zip != "" {
		geo.PostalCode = &result.Zip
	}
	if result.Timezone != "" {
		geo.Timezone = &result.Timezone
	}

	return geo, nil
}
