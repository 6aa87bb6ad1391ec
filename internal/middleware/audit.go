// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/vigil-monitoring/vigil/internal/audit"
	"github.com/vigil-monitoring/vigil/internal/auth"
	"github.com/vigil-monitoring/vigil/internal/logging"
)

// maxCapturedBody bounds how much of a request or response body the
// interceptor will retain for audit details. Larger bodies are truncated
// for auditing; the handler still sees the full stream.
const maxCapturedBody = 64 * 1024

// Enqueuer accepts finished audit records for asynchronous persistence.
type Enqueuer interface {
	Enqueue(record *audit.Record) bool
}

// Auditor observes admin API traffic and emits audit records after each
// auditable response completes. It never alters a response and never blocks
// one: records are handed to the enqueuer without waiting on storage, and
// any internal failure is logged and swallowed.
func Auditor(recorder Enqueuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !audit.ShouldLog(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			reqBody := captureRequestBody(r)
			tee := newTeeResponseWriter(w)
			next.ServeHTTP(tee, r)

			// Record construction runs after the response is already
			// written, so a panic here cannot affect the client.
			func() {
				defer func() {
					if rec := recover(); rec != nil {
						logging.Error().Interface("panic", rec).
							Str("method", r.Method).
							Str("path", r.URL.Path).
							Msg("Audit record construction panicked")
					}
				}()
				if record := buildRecord(r, tee, reqBody); record != nil {
					recorder.Enqueue(record)
				}
			}()
		})
	}
}

// buildRecord assembles an audit record from the completed exchange, or
// returns nil when the route does not map to an auditable action.
func buildRecord(r *http.Request, tee *teeResponseWriter, reqBody []byte) *audit.Record {
	action, ok := audit.Classify(r.Method, r.URL.Path)
	if !ok {
		return nil
	}

	body := decodeBodyMap(reqBody)
	client := ClientInfoFromContext(r.Context())

	record := &audit.Record{
		Action:       action,
		ResourceType: audit.ResourceTypeFromPath(r.URL.Path),
		ResourceID:   resourceID(r, body),
		ResourceName: resourceName(r.URL.Path, body),
		Actor:        resolveActor(r),
		Network: audit.Network{
			IPAddress:   client.IPAddress,
			Geolocation: client.Geolocation,
			UserAgent:   client.UserAgent,
		},
		Request: audit.RequestInfo{
			Method:   r.Method,
			Endpoint: r.URL.Path,
		},
		Details: buildDetails(r, body),
		Outcome: buildOutcome(tee),
	}
	return record
}

// resolveActor maps the request principal to an audit actor. Admin beats
// user; anonymous traffic is attributed to the system.
func resolveActor(r *http.Request) audit.Actor {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		return audit.Actor{Type: audit.ActorSystem}
	}
	atype := audit.ActorUser
	if principal.Type == auth.PrincipalAdmin {
		atype = audit.ActorAdmin
	}
	return audit.Actor{
		Type:  atype,
		ID:    principal.ID,
		Name:  principal.Name,
		Email: principal.Email,
	}
}

// resourceID prefers route parameters over body fields.
func resourceID(r *http.Request, body map[string]interface{}) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for _, key := range []string{"id", "userId", "websiteId", "adminId"} {
			if v := rctx.URLParam(key); v != "" {
				return v
			}
		}
	}
	if body != nil {
		if id, ok := body["id"].(string); ok {
			return id
		}
	}
	return ""
}

// resourceName extracts a human-readable name from the request body,
// falling back to the field most characteristic of the resource family.
func resourceName(path string, body map[string]interface{}) string {
	if body == nil {
		return ""
	}
	if name, ok := body["name"].(string); ok && name != "" {
		return name
	}
	switch audit.ResourceTypeFromPath(path) {
	case audit.ResourceUser, audit.ResourceAdmin:
		if email, ok := body["email"].(string); ok {
			return email
		}
	case audit.ResourceWebsite:
		if url, ok := body["url"].(string); ok {
			return url
		}
	}
	return ""
}

// buildDetails merges the request body, route parameters, and query
// parameters into a single redacted detail map.
func buildDetails(r *http.Request, body map[string]interface{}) map[string]interface{} {
	details := make(map[string]interface{})
	for k, v := range body {
		details[k] = v
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			details[key] = rctx.URLParams.Values[i]
		}
	}
	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			details[k] = vals[0]
		}
	}
	if len(details) == 0 {
		return nil
	}
	return audit.Redact(details)
}

// buildOutcome derives the outcome from the captured response. Statuses
// below 400 are successes; failures carry the response's message when the
// body exposes one.
func buildOutcome(tee *teeResponseWriter) audit.Outcome {
	status := tee.Status()
	if status < http.StatusBadRequest {
		return audit.Outcome{Status: audit.OutcomeSuccess}
	}
	return audit.Outcome{
		Status:       audit.OutcomeFailure,
		ErrorMessage: responseMessage(tee.Body()),
	}
}

// responseMessage looks for a top-level or error-nested "message" field in
// a JSON error response.
func responseMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg, ok := payload["message"].(string); ok {
		return msg
	}
	if errObj, ok := payload["error"].(map[string]interface{}); ok {
		if msg, ok := errObj["message"].(string); ok {
			return msg
		}
	}
	return ""
}

// captureRequestBody reads up to maxCapturedBody bytes of the request body
// and restores the stream so the handler sees it intact.
func captureRequestBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	captured, err := io.ReadAll(io.LimitReader(r.Body, maxCapturedBody))
	if err != nil {
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(captured), r.Body))
		return nil
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(captured), r.Body))
	return captured
}

// decodeBodyMap parses a captured JSON object body, returning nil for
// anything that is not a JSON object.
func decodeBodyMap(body []byte) map[string]interface{} {
	if len(body) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	return m
}

// teeResponseWriter records the response status and a bounded copy of the
// body while passing every write through to the client untouched.
type teeResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newTeeResponseWriter(w http.ResponseWriter) *teeResponseWriter {
	return &teeResponseWriter{ResponseWriter: w}
}

func (t *teeResponseWriter) WriteHeader(status int) {
	if !t.wroteHeader {
		t.status = status
		t.wroteHeader = true
	}
	t.ResponseWriter.WriteHeader(status)
}

func (t *teeResponseWriter) Write(p []byte) (int, error) {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	if remaining := maxCapturedBody - t.body.Len(); remaining > 0 {
		if len(p) > remaining {
			t.body.Write(p[:remaining])
		} else {
			t.body.Write(p)
		}
	}
	return t.ResponseWriter.Write(p)
}

// Flush passes through to the underlying writer when it supports streaming.
func (t *teeResponseWriter) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Status returns the recorded status, defaulting to 200 when the handler
// wrote a body without an explicit header.
func (t *teeResponseWriter) Status() int {
	if !t.wroteHeader {
		return http.StatusOK
	}
	return t.status
}

// Body returns the captured (possibly truncated) response body.
func (t *teeResponseWriter) Body() []byte {
	return t.body.Bytes()
}
