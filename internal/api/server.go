// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vigil-monitoring/vigil/internal/audit"
	"github.com/vigil-monitoring/vigil/internal/auth"
	"github.com/vigil-monitoring/vigil/internal/config"
	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/middleware"
	"github.com/vigil-monitoring/vigil/internal/pinger"
	"github.com/vigil-monitoring/vigil/internal/store"
)

// Server carries the dependencies of the admin HTTP surface and serves it.
// Implements suture.Service.
type Server struct {
	cfg       *config.Config
	resources *store.ResourceStore
	recorder  *audit.Recorder
	parser    *auth.TokenParser
	resolver  middleware.GeoResolver
	prober    *pinger.Pinger
	startedAt time.Time
}

// NewServer assembles the API server. The resolver may be nil when
// geolocation is disabled.
func NewServer(
	cfg *config.Config,
	resources *store.ResourceStore,
	recorder *audit.Recorder,
	parser *auth.TokenParser,
	resolver middleware.GeoResolver,
) *Server {
	return &Server{
		cfg:       cfg,
		resources: resources,
		recorder:  recorder,
		parser:    parser,
		resolver:  resolver,
		prober:    pinger.New(0),
		startedAt: time.Now().UTC(),
	}
}

// Router builds the full route tree with the middleware pipeline:
// request ID, metrics, hardening headers, CORS, rate limiting, client
// address resolution, then authentication. The audit interceptor wraps
// only the admin API group.
func (s *Server) Router() chi.Router {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins:   s.cfg.Security.CORSOrigins,
		CORSAllowedMethods:   DefaultChiMiddlewareConfig().CORSAllowedMethods,
		CORSAllowedHeaders:   DefaultChiMiddlewareConfig().CORSAllowedHeaders,
		CORSMaxAge:           86400,
		RateLimitRequests:    s.cfg.Security.RateLimitReqs,
		RateLimitWindow:      s.cfg.Security.RateLimitWindow,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(SecurityHeaders)
	r.Use(mw.CORS())
	r.Use(mw.RateLimit())
	r.Use(middleware.ClientIP(s.resolver))
	r.Use(auth.Middleware(s.parser))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auditor(s.recorder))

		r.Post("/login", s.handleLogin)

		// Everything below requires an admin principal.
		r.Group(func(r chi.Router) {
			r.Use(auth.Require(auth.PrincipalAdmin))

			r.Post("/logout", s.handleLogout)

			r.Route("/websites", func(r chi.Router) {
				r.Get("/", s.handleListWebsites)
				r.Post("/", s.handleCreateWebsite)
				r.Post("/bulk", s.handleBulkWebsites)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetWebsite)
					r.Put("/", s.handleUpdateWebsite)
					r.Delete("/", s.handleDeleteWebsite)
					r.Post("/ping", s.handlePingWebsite)
					r.Post("/force-ping", s.handlePingWebsite)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Put("/", s.handleUpdateUser)
					r.Delete("/", s.handleDeleteUser)
					r.Post("/suspend", s.handleSuspendUser)
					r.Post("/activate", s.handleActivateUser)
				})
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", s.handleListAdmins)
				r.Post("/", s.handleCreateAdmin)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAdmin)
					r.Put("/", s.handleUpdateAdmin)
					r.Delete("/", s.handleDeleteAdmin)
				})
			})

			r.Get("/export/{resource}", s.handleExport)
			r.Get("/stats/comprehensive", s.handleComprehensiveStats)

			r.Route("/audit-logs", func(r chi.Router) {
				r.Get("/", s.handleListAuditLogs)
				r.Get("/stats", s.handleAuditStats)
				r.Get("/export", s.handleExportAuditLogs)
				r.Get("/{id}", s.handleGetAuditLog)
			})
		})
	})

	return r
}

// Serve runs the HTTP listener until the context is canceled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) String() string {
	return "api-server"
}
