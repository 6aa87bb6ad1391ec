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
	"golang.org/x/crypto/bcrypt"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/models"
	"github.com/vigil-monitoring/vigil/internal/store"
	"github.com/vigil-monitoring/vigil/internal/validation"
)

type adminRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin superadmin"`
	Password string `json:"password" validate:"omitempty,min=12"`
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	admins, err := s.resources.ListAdmins()
	if err != nil {
		logging.Error().Err(err).Msg("Admin listing failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not list admins")
		return
	}
	respondJSON(w, http.StatusOK, models.PaginatedResult{
		Total:   len(admins),
		Limit:   len(admins),
		Results: admins,
	}, start)
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req adminRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", "password is required")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "HASH_ERROR", "could not process password")
		return
	}

	admin := &models.Admin{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if admin.Role == "" {
		admin.Role = "admin"
	}
	if err := s.resources.CreateAdmin(admin); err != nil {
		logging.Error().Err(err).Msg("Admin creation failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not create admin")
		return
	}
	respondJSON(w, http.StatusCreated, admin, start)
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	admin, err := s.resources.GetAdmin(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "admin not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load admin")
		return
	}
	respondJSON(w, http.StatusOK, admin, start)
}

func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req adminRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	admin, err := s.resources.GetAdmin(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "admin not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load admin")
		return
	}

	admin.Name = req.Name
	admin.Email = req.Email
	if req.Role != "" {
		admin.Role = req.Role
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "HASH_ERROR", "could not process password")
			return
		}
		admin.PasswordHash = string(hash)
	}
	if err := s.resources.UpdateAdmin(admin); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not update admin")
		return
	}
	respondJSON(w, http.StatusOK, admin, start)
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.resources.DeleteAdmin(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "admin not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not delete admin")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "admin deleted"}, start)
}
