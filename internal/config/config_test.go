// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Audit.RetentionDays != 90 {
		t.Errorf("retention_days default = %d, want 90", cfg.Audit.RetentionDays)
	}
	if cfg.Audit.BufferSize != 1000 {
		t.Errorf("buffer_size default = %d, want 1000", cfg.Audit.BufferSize)
	}
	if cfg.Audit.CleanupInterval != 24*time.Hour {
		t.Errorf("cleanup_interval default = %v", cfg.Audit.CleanupInterval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero retention", func(c *Config) { c.Audit.RetentionDays = 0 }},
		{"zero buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
		{"missing duckdb path", func(c *Config) { c.Database.DuckDBPath = "" }},
		{"missing badger path", func(c *Config) { c.Database.BadgerPath = "" }},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "tooshort" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero geoip ttl", func(c *Config) { c.GeoIP.Enabled = true; c.GeoIP.CacheTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
audit:
  retention_days: 30
  buffer_size: 50
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Audit.RetentionDays != 30 {
		t.Errorf("retention_days = %d, want 30", cfg.Audit.RetentionDays)
	}
	// Untouched fields keep defaults.
	if cfg.Database.DuckDBPath != "/data/vigil.duckdb" {
		t.Errorf("duckdb_path = %q", cfg.Database.DuckDBPath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("VIGIL_SERVER_PORT", "7070")
	t.Setenv("VIGIL_AUDIT_RETENTION_DAYS", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env-provided 7070", cfg.Server.Port)
	}
	if cfg.Audit.RetentionDays != 45 {
		t.Errorf("retention_days = %d, want 45", cfg.Audit.RetentionDays)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct{ in, want string }{
		{"VIGIL_SERVER_PORT", "server.port"},
		{"VIGIL_AUDIT_RETENTION_DAYS", "audit.retention_days"},
		{"VIGIL_SECURITY_JWT_SECRET", "security.jwt_secret"},
		{"VIGIL_DATABASE_DUCKDB_PATH", "database.duckdb_path"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("VIGIL_SECURITY_CORS_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.test" {
		t.Errorf("cors_origins = %v", cfg.Security.CORSOrigins)
	}
}
