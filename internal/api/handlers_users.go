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

type userRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	users, err := s.resources.ListUsers()
	if err != nil {
		logging.Error().Err(err).Msg("User listing failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not list users")
		return
	}
	respondJSON(w, http.StatusOK, models.PaginatedResult{
		Total:   len(users),
		Limit:   len(users),
		Results: users,
	}, start)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email}
	if err := s.resources.CreateUser(user); err != nil {
		logging.Error().Err(err).Msg("User creation failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not create user")
		return
	}
	respondJSON(w, http.StatusCreated, user, start)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	user, err := s.resources.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load user")
		return
	}
	respondJSON(w, http.StatusOK, user, start)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	user, err := s.resources.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not load user")
		return
	}

	user.Name = req.Name
	user.Email = req.Email
	if err := s.resources.UpdateUser(user); err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not update user")
		return
	}
	respondJSON(w, http.StatusOK, user, start)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.resources.DeleteUser(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not delete user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"}, start)
}

func (s *Server) handleSuspendUser(w http.ResponseWriter, r *http.Request) {
	s.setSuspension(w, r, true)
}

func (s *Server) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	s.setSuspension(w, r, false)
}

func (s *Server) setSuspension(w http.ResponseWriter, r *http.Request, suspended bool) {
	start := time.Now()
	user, err := s.resources.SetUserSuspended(chi.URLParam(r, "id"), suspended)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not update user")
		return
	}
	respondJSON(w, http.StatusOK, user, start)
}
