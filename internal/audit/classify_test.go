// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"testing"
)

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{"plain GET list", "GET", "/api/websites", false},
		{"GET export", "GET", "/api/admin/export/users", true},
		{"GET comprehensive stats", "GET", "/api/admin/stats/comprehensive", true},
		{"GET regular stats", "GET", "/api/admin/stats", false},
		{"POST", "POST", "/api/websites", true},
		{"PUT", "PUT", "/api/websites/w1", true},
		{"PATCH", "PATCH", "/api/users/u1", true},
		{"DELETE", "DELETE", "/api/admin/websites/w1", true},
		{"HEAD", "HEAD", "/api/websites", false},
		{"OPTIONS", "OPTIONS", "/api/websites", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldLog(tt.method, tt.path); got != tt.want {
				t.Errorf("ShouldLog(%s, %s) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   Action
		logged bool
	}{
		// Authentication
		{"POST", "/api/admin/login", ActionLogin, true},
		{"GET", "/api/admin/login", "", false},
		{"PUT", "/api/admin/login", "", false},
		{"POST", "/api/admin/logout", ActionLogout, true},
		{"GET", "/api/logout", ActionLogout, true},

		// Users
		{"POST", "/api/admin/users", ActionCreateUser, true},
		{"PUT", "/api/admin/users/u1", ActionUpdateUser, true},
		{"PATCH", "/api/admin/users/u1", ActionUpdateUser, true},
		{"DELETE", "/api/admin/users/u1", ActionDeleteUser, true},
		{"POST", "/api/admin/users/u1/suspend", ActionSuspendUser, true},
		{"POST", "/api/admin/users/u1/activate", ActionActivateUser, true},
		{"GET", "/api/admin/users", "", false},

		// Websites
		{"POST", "/api/websites", ActionCreateWebsite, true},
		{"PUT", "/api/websites/w1", ActionUpdateWebsite, true},
		{"DELETE", "/api/admin/websites/w1", ActionDeleteWebsite, true},
		{"POST", "/api/admin/websites/abc/ping", ActionPingWebsite, true},
		{"POST", "/api/admin/websites/abc/force-ping", ActionPingWebsite, true},

		// Admins
		{"POST", "/api/admins", ActionCreateAdmin, true},
		{"PATCH", "/api/admins/a1", ActionUpdateAdmin, true},
		{"DELETE", "/api/admins/a1", ActionDeleteAdmin, true},

		// Cross-resource
		{"POST", "/api/admin/websites/bulk", ActionBulkOperation, true},
		{"GET", "/api/admin/export/users", ActionExportData, true},
		{"GET", "/api/admin/stats/comprehensive", ActionSystemAction, true},

		// No match
		{"GET", "/api/health", "", false},
		{"POST", "/api/settings", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got, ok := Classify(tt.method, tt.path)
			if ok != tt.logged {
				t.Fatalf("Classify(%s, %s) matched = %v, want %v", tt.method, tt.path, ok, tt.logged)
			}
			if ok && got != tt.want {
				t.Errorf("Classify(%s, %s) = %s, want %s", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

// Classification must depend only on method and path; run the same pair
// repeatedly to catch hidden state.
func TestClassifyDeterminism(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got, _ := Classify("POST", "/api/admin/users"); got != ActionCreateUser {
			t.Fatalf("iteration %d: got %s, want CREATE_USER", i, got)
		}
		if got, _ := Classify("POST", "/api/admin/websites/abc/force-ping"); got != ActionPingWebsite {
			t.Fatalf("iteration %d: got %s, want PING_WEBSITE", i, got)
		}
	}
}

func TestLoginFailedNeverEmitted(t *testing.T) {
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	paths := []string{
		"/api/admin/login", "/api/login", "/api/login/failed",
		"/api/admin/users", "/api/websites",
	}

	for _, m := range methods {
		for _, p := range paths {
			if got, ok := Classify(m, p); ok && got == ActionLoginFailed {
				t.Errorf("Classify(%s, %s) emitted reserved LOGIN_FAILED", m, p)
			}
		}
	}
}

func TestRedact(t *testing.T) {
	details := map[string]interface{}{
		"password": "x",
		"token":    "y",
		"secret":   "z",
		"apiKey":   "k",
		"name":     "Bob",
		"email":    "bob@example.com",
	}

	got := Redact(details)

	for _, denied := range []string{"password", "token", "secret", "apiKey"} {
		if _, present := got[denied]; present {
			t.Errorf("expected %q to be redacted", denied)
		}
	}
	if got["name"] != "Bob" {
		t.Errorf("expected name to survive redaction, got %v", got["name"])
	}
	if got["email"] != "bob@example.com" {
		t.Errorf("expected email to survive redaction, got %v", got["email"])
	}
}

func TestRedactExactMatchOnly(t *testing.T) {
	// The denylist is exact and case-sensitive: variants pass through.
	details := map[string]interface{}{
		"Password":  "x",
		"TOKEN":     "y",
		"api_key":   "z",
		"passwords": "w",
	}

	got := Redact(details)

	if len(got) != 4 {
		t.Errorf("expected case-variant keys to survive, got %v", got)
	}
}

func TestRedactNil(t *testing.T) {
	if got := Redact(nil); got != nil {
		t.Errorf("expected nil map to stay nil, got %v", got)
	}
}

func TestResourceTypeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ResourceType
	}{
		{"/api/admin/users/u1", ResourceUser},
		{"/api/websites/w1/ping", ResourceWebsite},
		{"/api/admins/a1", ResourceAdmin},
		{"/api/admin/stats/comprehensive", ResourceSystem},
		{"/api/health", ResourceSystem},
	}

	for _, tt := range tests {
		if got := ResourceTypeFromPath(tt.path); got != tt.want {
			t.Errorf("ResourceTypeFromPath(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
