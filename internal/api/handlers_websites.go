// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/models"
	"github.com/vigil-monitoring/vigil/internal/store"
	"github.com/vigil-monitoring/vigil/internal/validation"
)

type websiteRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	URL           string `json:"url" validate:"required,url,max=2048"`
	CheckInterval int    `json:"check_interval" validate:"omitempty,min=30,max=86400"`
}

func (s *Server) handleListWebsites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	websites, err := s.resources.ListWebsites()
	if err != nil {
		logging.Error().Err(err).Msg("Website listing failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not list websites")
		return
	}
	respondJSON(w, http.StatusOK, models.PaginatedResult{
		Total:   len(websites),
		Limit:   len(websites),
		Results: websites,
	}, start)
}

func (s *Server) handleCreateWebsite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req websiteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	website := &models.Website{
		Name:          req.Name,
		URL:           req.URL,
		CheckInterval: req.CheckInterval,
	}
	if err := s.resources.CreateWebsite(website); err != nil {
		logging.Error().Err(err).Msg("Website creation failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not create website")
		return
	}
	respondJSON(w, http.StatusCreated, website, start)
}

func (s *Server) handleGetWebsite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	website, err := s.resources.GetWebsite(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "website not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load website")
		return
	}
	respondJSON(w, http.StatusOK, website, start)
}

func (s *Server) handleUpdateWebsite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req websiteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	id := chi.URLParam(r, "id")
	website, err := s.resources.GetWebsite(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "website not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load website")
		return
	}

	website.Name = req.Name
	website.URL = req.URL
	website.CheckInterval = req.CheckInterval
	if err := s.resources.UpdateWebsite(website); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not update website")
		return
	}
	respondJSON(w, http.StatusOK, website, start)
}

func (s *Server) handleDeleteWebsite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.resources.DeleteWebsite(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "website not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not delete website")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "website deleted"}, start)
}

// handlePingWebsite probes the website immediately and records the result
// on the resource. Both /ping and /force-ping land here; force-ping exists
// so operators can bypass any scheduled-check coalescing in clients.
func (s *Server) handlePingWebsite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	website, err := s.resources.GetWebsite(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "website not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load website")
		return
	}

	result := s.prober.Ping(r.Context(), website)

	website.Status = "down"
	if result.Up {
		website.Status = "up"
	}
	now := result.CheckedAt
	website.LastCheckedAt = &now
	if err := s.resources.UpdateWebsite(website); err != nil {
		logging.Warn().Err(err).Str("website_id", website.ID).Msg("Could not persist ping status")
	}

	respondJSON(w, http.StatusOK, result, start)
}

type bulkWebsiteRequest struct {
	Action string   `json:"action" validate:"required,oneof=delete ping"`
	IDs    []string `json:"ids" validate:"required,min=1,max=100"`
}

type bulkWebsiteResult struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// handleBulkWebsites applies one action across many websites. Failures are
// reported per ID; the operation is not transactional.
func (s *Server) handleBulkWebsites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req bulkWebsiteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	result := bulkWebsiteResult{Failed: make(map[string]string)}
	for _, id := range req.IDs {
		var err error
		switch req.Action {
		case "delete":
			err = s.resources.DeleteWebsite(id)
		case "ping":
			var website *models.Website
			if website, err = s.resources.GetWebsite(id); err == nil {
				res := s.prober.Ping(r.Context(), website)
				website.Status = "down"
				if res.Up {
					website.Status = "up"
				}
				now := res.CheckedAt
				website.LastCheckedAt = &now
				err = s.resources.UpdateWebsite(website)
			}
		}
		if err != nil {
			result.Failed[id] = err.Error()
		} else {
			result.Succeeded = append(result.Succeeded, id)
		}
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	respondJSON(w, http.StatusOK, result, start)
}
