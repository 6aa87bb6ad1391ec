// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Package config defines Vigil's layered configuration: built-in defaults,
// an optional YAML file, then environment variables, each layer overriding
// the last.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Vigil server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Audit    AuditConfig    `koanf:"audit"`
	GeoIP    GeoIPConfig    `koanf:"geoip"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the storage paths. DuckDB keeps the audit trail;
// Badger keeps resources and the geolocation cache.
type DatabaseConfig struct {
	DuckDBPath string `koanf:"duckdb_path" validate:"required"`
	BadgerPath string `koanf:"badger_path" validate:"required"`
}

// AuditConfig controls the audit recorder and retention sweeper.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	RetentionDays   int           `koanf:"retention_days" validate:"min=1"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	BufferSize      int           `koanf:"buffer_size" validate:"min=1"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
}

// GeoIPConfig configures geolocation providers and the lookup cache.
type GeoIPConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxMindAccountID string        `koanf:"maxmind_account_id"`
	MaxMindLicense   string        `koanf:"maxmind_license"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
}

// SecurityConfig covers authentication, CORS, and rate limiting.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig mirrors the logging package's options.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("audit.retention_days must be at least 1, got %d", c.Audit.RetentionDays)
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("audit.buffer_size must be at least 1, got %d", c.Audit.BufferSize)
	}
	if c.Database.DuckDBPath == "" {
		return fmt.Errorf("database.duckdb_path is required")
	}
	if c.Database.BadgerPath == "" {
		return fmt.Errorf("database.badger_path is required")
	}
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.GeoIP.Enabled && c.GeoIP.CacheTTL <= 0 {
		return fmt.Errorf("geoip.cache_ttl must be positive when geoip is enabled")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not valid", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not valid", c.Logging.Format)
	}
	return nil
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DuckDBPath: "/data/vigil.duckdb",
			BadgerPath: "/data/badger",
		},
		Audit: AuditConfig{
			Enabled:         true,
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
			BufferSize:      1000,
			WriteTimeout:    5 * time.Second,
		},
		GeoIP: GeoIPConfig{
			Enabled:  true,
			CacheTTL: 24 * time.Hour,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
