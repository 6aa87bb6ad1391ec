// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Package auth parses bearer tokens into request principals. It identifies
// who is acting; it does not decide what they may do.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vigil-monitoring/vigil/internal/logging"
)

// PrincipalType distinguishes the kinds of authenticated callers.
type PrincipalType string

const (
	PrincipalAdmin PrincipalType = "admin"
	PrincipalUser  PrincipalType = "user"
)

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	Type  PrincipalType
	ID    string
	Name  string
	Email string
}

// Claims is the JWT claim set Vigil issues and accepts.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type contextKey string

const principalKey contextKey = "principal"

var ErrNoToken = errors.New("auth: no bearer token")

// TokenParser validates bearer tokens and maps them to principals.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// IssueToken mints a signed token for the given principal, valid for ttl.
func (p *TokenParser) IssueToken(principal Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  principal.Name,
		Email: principal.Email,
		Role:  string(principal.Type),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "vigil",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Parse validates a raw token string and returns the principal it encodes.
func (p *TokenParser) Parse(raw string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}

	ptype := PrincipalUser
	if claims.Role == string(PrincipalAdmin) {
		ptype = PrincipalAdmin
	}
	return &Principal{
		Type:  ptype,
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}

// FromRequest extracts and validates the bearer token on a request.
func (p *TokenParser) FromRequest(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" || raw == header {
		return nil, ErrNoToken
	}
	return p.Parse(raw)
}

// Middleware attaches the request principal to the context when a valid
// bearer token is present. Requests without a token pass through
// unauthenticated; enforcement belongs to Require.
func Middleware(parser *TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := parser.FromRequest(r)
			if err != nil {
				if !errors.Is(err, ErrNoToken) {
					logging.Debug().Err(err).Msg("Rejected bearer token")
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests that lack an authenticated principal of the
// given type. Admin satisfies a user requirement; the reverse does not hold.
func Require(ptype PrincipalType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			if ptype == PrincipalAdmin && principal.Type != PrincipalAdmin {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"status":"error","message":%q,"error":{"code":%q,"message":%q}}`, message, code, message)
}

// ContextWithPrincipal returns a context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}
