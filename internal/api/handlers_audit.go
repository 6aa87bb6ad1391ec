// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vigil-monitoring/vigil/internal/audit"
	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/models"
)

const maxAuditPageSize = 1000

// parseAuditFilter translates query parameters into a store filter.
// Unknown actions and outcomes are rejected rather than silently ignored.
func parseAuditFilter(r *http.Request) (audit.QueryFilter, *models.APIError) {
	filter := audit.DefaultQueryFilter()
	q := r.URL.Query()

	if raw := q.Get("actions"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			action := audit.Action(strings.TrimSpace(a))
			if !action.IsValid() {
				return filter, &models.APIError{Code: "INVALID_FILTER", Message: "unknown action: " + string(action)}
			}
			filter.Actions = append(filter.Actions, action)
		}
	}
	if raw := q.Get("resource_type"); raw != "" {
		rt := audit.ResourceType(raw)
		if !rt.IsValid() {
			return filter, &models.APIError{Code: "INVALID_FILTER", Message: "unknown resource type: " + raw}
		}
		filter.ResourceType = rt
	}
	filter.ResourceID = q.Get("resource_id")
	filter.ActorID = q.Get("actor_id")
	if raw := q.Get("actor_type"); raw != "" {
		filter.ActorType = audit.ActorType(raw)
	}
	filter.IPAddress = q.Get("ip_address")
	if raw := q.Get("outcomes"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			filter.Outcomes = append(filter.Outcomes, audit.OutcomeStatus(strings.TrimSpace(o)))
		}
	}
	for param, dst := range map[string]**time.Time{"start_time": &filter.StartTime, "end_time": &filter.EndTime} {
		if raw := q.Get(param); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return filter, &models.APIError{Code: "INVALID_FILTER", Message: param + " must be RFC 3339"}
			}
			*dst = &t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditPageSize {
			return filter, &models.APIError{Code: "INVALID_FILTER", Message: "limit must be between 1 and 1000"}
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, &models.APIError{Code: "INVALID_FILTER", Message: "offset must be non-negative"}
		}
		filter.Offset = n
	}
	return filter, nil
}

func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, apiErr := parseAuditFilter(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}

	records, err := s.recorder.Query(r.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("Audit query failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not query audit records")
		return
	}
	total, err := s.recorder.Count(r.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("Audit count failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not count audit records")
		return
	}

	respondJSON(w, http.StatusOK, models.PaginatedResult{
		Total:   int(total),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		Results: records,
	}, start)
}

func (s *Server) handleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	record, err := s.recorder.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "audit record not found")
		return
	}
	respondJSON(w, http.StatusOK, record, start)
}

func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := s.recorder.GetStats(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Audit stats failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not compute audit stats")
		return
	}
	respondJSON(w, http.StatusOK, stats, start)
}

// handleExportAuditLogs streams matching records as JSON or CEF, chosen by
// the format parameter.
func (s *Server) handleExportAuditLogs(w http.ResponseWriter, r *http.Request) {
	filter, apiErr := parseAuditFilter(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}
	// Exports page through everything the filter matches.
	filter.Limit = maxAuditPageSize

	records, err := s.recorder.Query(r.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("Audit export query failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not export audit records")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "cef":
		data, err := audit.NewCEFExporter().Export(records)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "EXPORT_ERROR", "could not render CEF export")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-export.cef"`)
		w.Write(data)
	case "", "json":
		data, err := (&audit.JSONExporter{}).Export(records)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "EXPORT_ERROR", "could not render JSON export")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-export.json"`)
		w.Write(data)
	default:
		respondError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be json or cef")
	}
}
