// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package models

import "time"

// Website is a monitored site owned by a user.
type Website struct {
	ID            string     `json:"id"`
	Name          string     `json:"name" validate:"required,max=200"`
	URL           string     `json:"url" validate:"required,url,max=2048"`
	CheckInterval int        `json:"check_interval" validate:"omitempty,min=30,max=86400"` // seconds
	Status        string     `json:"status"`                                               // "up", "down", "unknown"
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// User is an end user of the monitoring service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Email     string    `json:"email" validate:"required,email"`
	Suspended bool      `json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Admin is an operator account with access to the admin API surface.
type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,max=200"`
	Email        string    `json:"email" validate:"required,email"`
	Role         string    `json:"role" validate:"omitempty,oneof=admin superadmin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PingResult is the outcome of a one-shot website reachability probe.
type PingResult struct {
	WebsiteID  string    `json:"website_id"`
	URL        string    `json:"url"`
	Up         bool      `json:"up"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
