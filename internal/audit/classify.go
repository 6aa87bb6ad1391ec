// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"net/http"
	"strings"
)

// ShouldLog reports whether a request is auditable at all: state-changing
// methods always are; reads only when the path contains /export or
// /stats/comprehensive. Routine listing and dashboard polling never hit
// the trail.
func ShouldLog(method, path string) bool {
	if !isReadMethod(method) {
		return true
	}
	return strings.Contains(path, "/export") ||
		strings.Contains(path, "/stats/comprehensive")
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// Classify maps (method, path) to an action tag. It is a pure function
// evaluated as an ordered rule set; the first matching rule wins. A false
// second return means no rule matched and the request is not logged, even
// if ShouldLog approved it — both must agree for a write to occur.
//
// Note the /login asymmetry: only POST /login classifies (to LOGIN); any
// other method on a /login path is dropped rather than conflated with a
// logout or failed login. LOGIN_FAILED stays reserved and unreachable.
func Classify(method, path string) (Action, bool) {
	if strings.Contains(path, "/login") {
		if method == http.MethodPost {
			return ActionLogin, true
		}
		return "", false
	}
	if strings.Contains(path, "/logout") {
		return ActionLogout, true
	}

	// Cross-resource operations outrank the per-resource method rules so
	// POST /websites/bulk classifies as a bulk operation, not a create.
	if strings.Contains(path, "/bulk") {
		return ActionBulkOperation, true
	}
	if strings.Contains(path, "/export") {
		return ActionExportData, true
	}
	if strings.Contains(path, "/stats/comprehensive") {
		return ActionSystemAction, true
	}

	if strings.Contains(path, "/users") {
		if strings.Contains(path, "/suspend") {
			return ActionSuspendUser, true
		}
		if strings.Contains(path, "/activate") {
			return ActionActivateUser, true
		}
		switch {
		case method == http.MethodPost:
			return ActionCreateUser, true
		case isMutation(method):
			return ActionUpdateUser, true
		case method == http.MethodDelete:
			return ActionDeleteUser, true
		}
		return "", false
	}

	if strings.Contains(path, "/websites") {
		if strings.Contains(path, "/ping") || strings.Contains(path, "/force-ping") {
			return ActionPingWebsite, true
		}
		switch {
		case method == http.MethodPost:
			return ActionCreateWebsite, true
		case isMutation(method):
			return ActionUpdateWebsite, true
		case method == http.MethodDelete:
			return ActionDeleteWebsite, true
		}
		return "", false
	}

	if strings.Contains(path, "/admins") {
		switch {
		case method == http.MethodPost:
			return ActionCreateAdmin, true
		case isMutation(method):
			return ActionUpdateAdmin, true
		case method == http.MethodDelete:
			return ActionDeleteAdmin, true
		}
		return "", false
	}

	return "", false
}

// ResourceTypeFromPath infers the target resource family from the first
// matching path segment, defaulting to system.
func ResourceTypeFromPath(path string) ResourceType {
	switch {
	case strings.Contains(path, "/users"):
		return ResourceUser
	case strings.Contains(path, "/websites"):
		return ResourceWebsite
	case strings.Contains(path, "/admins"):
		return ResourceAdmin
	default:
		return ResourceSystem
	}
}

// redactedFields is the denylist removed from captured request details.
// Exact, case-sensitive matches only; nested keys and case variants pass
// through. Deliberately minimal.
var redactedFields = []string{"password", "token", "secret", "apiKey"}

// Redact removes denylisted keys from the merged details map in place and
// returns it. A nil map stays nil.
func Redact(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	for _, field := range redactedFields {
		delete(details, field)
	}
	return details
}
