// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Command server runs the Vigil monitoring API: resource management,
// website probing, and the tamper-evident audit trail behind it.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/vigil-monitoring/vigil/internal/api"
	"github.com/vigil-monitoring/vigil/internal/audit"
	"github.com/vigil-monitoring/vigil/internal/auth"
	"github.com/vigil-monitoring/vigil/internal/config"
	"github.com/vigil-monitoring/vigil/internal/geoip"
	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/middleware"
	"github.com/vigil-monitoring/vigil/internal/store"
	"github.com/vigil-monitoring/vigil/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.DefaultConfig())
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("Starting Vigil")

	if cfg.Security.JWTSecret == "" {
		logging.Fatal().Msg("security.jwt_secret must be configured")
	}

	// Badger holds resources and the geolocation cache.
	badgerDB, err := store.Open(cfg.Database.BadgerPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open badger database")
	}
	defer badgerDB.Close()
	resources := store.NewResourceStore(badgerDB)

	// DuckDB holds the audit trail.
	duckDB, err := sql.Open("duckdb", cfg.Database.DuckDBPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open duckdb database")
	}
	defer duckDB.Close()

	auditStore := audit.NewDuckDBStore(duckDB)
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := auditStore.CreateTable(initCtx); err != nil {
		initCancel()
		logging.Fatal().Err(err).Msg("Failed to create audit schema")
	}
	initCancel()

	auditCfg := &audit.Config{
		Enabled:         cfg.Audit.Enabled,
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: cfg.Audit.CleanupInterval,
		BufferSize:      cfg.Audit.BufferSize,
		WriteTimeout:    cfg.Audit.WriteTimeout,
	}
	recorder := audit.NewRecorder(auditStore, auditCfg)
	sweeper := audit.NewSweeper(auditStore, auditCfg)

	var resolver middleware.GeoResolver
	if cfg.GeoIP.Enabled {
		resolver = buildGeoResolver(cfg, badgerDB)
	}

	parser := auth.NewTokenParser(cfg.Security.JWTSecret)
	server := api.NewServer(cfg, resources, recorder, parser, resolver)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAuditService(recorder)
	tree.AddAuditService(sweeper)
	tree.AddAPIService(server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Int("port", cfg.Server.Port).
		Int("retention_days", cfg.Audit.RetentionDays).
		Bool("geoip", cfg.GeoIP.Enabled).
		Msg("Vigil started")

	if err := tree.Serve(ctx); err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("Supervisor exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Vigil stopped")
}

// buildGeoResolver assembles the geolocation pipeline: Badger cache in
// front of circuit-broken providers, MaxMind first when credentials exist,
// then the free ip-api.com tier.
func buildGeoResolver(cfg *config.Config, db *badger.DB) middleware.GeoResolver {
	cache := geoip.NewBadgerCache(db, cfg.GeoIP.CacheTTL)

	var providers []geoip.Provider
	if cfg.GeoIP.MaxMindAccountID != "" && cfg.GeoIP.MaxMindLicense != "" {
		providers = append(providers,
			geoip.WithBreaker(geoip.NewMaxMindProvider(cfg.GeoIP.MaxMindAccountID, cfg.GeoIP.MaxMindLicense)))
	}
	providers = append(providers, geoip.WithBreaker(geoip.NewIPAPIProvider()))

	return geoip.NewResolver(cache, providers...)
}
