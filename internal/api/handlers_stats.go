// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/vigil-monitoring/vigil/internal/audit"
	"github.com/vigil-monitoring/vigil/internal/logging"
)

// comprehensiveStats is the aggregate view behind /stats/comprehensive.
type comprehensiveStats struct {
	Websites      int          `json:"websites"`
	Users         int          `json:"users"`
	Admins        int          `json:"admins"`
	Audit         *audit.Stats `json:"audit"`
	AuditQueueLen int          `json:"audit_queue_len"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	GeneratedAt   time.Time    `json:"generated_at"`
}

func (s *Server) handleComprehensiveStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	websites, users, admins, err := s.resources.Counts()
	if err != nil {
		logging.Error().Err(err).Msg("Resource counts failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not compute resource counts")
		return
	}
	auditStats, err := s.recorder.GetStats(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Audit stats failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not compute audit stats")
		return
	}

	respondJSON(w, http.StatusOK, comprehensiveStats{
		Websites:      websites,
		Users:         users,
		Admins:        admins,
		Audit:         auditStats,
		AuditQueueLen: s.recorder.QueueLen(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		GeneratedAt:   time.Now().UTC(),
	}, start)
}

// handleExport dumps a full resource collection as a JSON attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	var (
		data interface{}
		err  error
	)
	switch resource {
	case "websites":
		data, err = s.resources.ListWebsites()
	case "users":
		data, err = s.resources.ListUsers()
	case "admins":
		data, err = s.resources.ListAdmins()
	default:
		respondError(w, http.StatusBadRequest, "INVALID_RESOURCE", "resource must be websites, users, or admins")
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("resource", resource).Msg("Export listing failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not export "+resource)
		return
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "EXPORT_ERROR", "could not render export")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+resource+`-export.json"`)
	w.Write(payload)
}
