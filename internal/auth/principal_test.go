// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testParser() *TokenParser {
	return NewTokenParser("test-secret-at-least-32-characters")
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	parser := testParser()
	token, err := parser.IssueToken(Principal{
		Type:  PrincipalAdmin,
		ID:    "A1",
		Name:  "Root",
		Email: "root@vigil.local",
	}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	principal, err := parser.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if principal.Type != PrincipalAdmin || principal.ID != "A1" || principal.Name != "Root" {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	parser := testParser()
	token, err := parser.IssueToken(Principal{Type: PrincipalUser, ID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := parser.Parse(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := testParser().IssueToken(Principal{Type: PrincipalUser, ID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	other := NewTokenParser("a-completely-different-signing-secret")
	if _, err := other.Parse(token); err == nil {
		t.Error("expected error for wrong signing key")
	}
}

func TestFromRequestNoHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := testParser().FromRequest(req); err != ErrNoToken {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestMiddlewareAttachesPrincipal(t *testing.T) {
	parser := testParser()
	token, _ := parser.IssueToken(Principal{Type: PrincipalAdmin, ID: "A1", Name: "Root"}, time.Hour)

	var got *Principal
	handler := Middleware(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == nil || got.ID != "A1" || got.Type != PrincipalAdmin {
		t.Errorf("unexpected principal: %+v", got)
	}
}

func TestMiddlewarePassesThroughWithoutToken(t *testing.T) {
	var got *Principal
	handler := Middleware(testParser())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected pass-through 200, got %d", rec.Code)
	}
	if got != nil {
		t.Errorf("expected no principal, got %+v", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := Require(PrincipalAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("user principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithPrincipal(req.Context(), &Principal{Type: PrincipalUser, ID: "u1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithPrincipal(req.Context(), &Principal{Type: PrincipalAdmin, ID: "A1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
