// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package api

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vigil-monitoring/vigil/internal/auth"
	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/store"
	"github.com/vigil-monitoring/vigil/internal/validation"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AdminID   string    `json:"admin_id"`
	Name      string    `json:"name"`
}

// handleLogin verifies admin credentials and issues a session token.
// Unknown emails and wrong passwords share one message so the endpoint
// does not leak which accounts exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
		return
	}

	admin, err := s.resources.GetAdminByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Error().Err(err).Msg("Admin lookup failed")
		}
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}

	ttl := s.cfg.Security.SessionTimeout
	token, err := s.parser.IssueToken(auth.Principal{
		Type:  auth.PrincipalAdmin,
		ID:    admin.ID,
		Name:  admin.Name,
		Email: admin.Email,
	}, ttl)
	if err != nil {
		logging.Error().Err(err).Msg("Token issuance failed")
		respondError(w, http.StatusInternalServerError, "TOKEN_ERROR", "could not issue session token")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
		AdminID:   admin.ID,
		Name:      admin.Name,
	}, start)
}

// handleLogout acknowledges session termination. Tokens are stateless;
// the audit trail records the event and clients discard the token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"}, time.Now())
}
