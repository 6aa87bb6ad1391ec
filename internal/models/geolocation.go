// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package models

import "time"

// Geolocation represents the resolved geographic location of a client IP.
// City, Region, PostalCode and Timezone are pointers because providers
// frequently omit them, and callers must distinguish "unknown" from "".
type Geolocation struct {
	IPAddress   string    `json:"ip_address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	City        *string   `json:"city,omitempty"`
	Region      *string   `json:"region,omitempty"`
	Country     string    `json:"country"`
	PostalCode  *string   `json:"postal_code,omitempty"`
	Timezone    *string   `json:"timezone,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// ClientInfo is the per-request client identity attached to the request
// context by the client IP middleware and consumed by the audit interceptor.
//
// IPAddress is never empty: it is the resolved client IP, "unknown" when no
// source header or remote address yielded a usable value, or "error" when
// resolution itself failed. Geolocation is nil for loopback, "unknown" and
// "error" addresses.
type ClientInfo struct {
	IPAddress   string       `json:"ip_address"`
	UserAgent   string       `json:"user_agent,omitempty"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
}
