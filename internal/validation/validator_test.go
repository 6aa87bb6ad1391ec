// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package validation

import (
	"strings"
	"testing"
)

type testRequest struct {
	Name  string `validate:"required,max=10"`
	Email string `validate:"omitempty,email"`
	Limit int    `validate:"min=0,max=100"`
}

func TestValidateStructPasses(t *testing.T) {
	req := testRequest{Name: "vigil", Email: "ops@example.com", Limit: 50}

	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("expected no validation error, got: %v", verr)
	}
}

func TestValidateStructRequired(t *testing.T) {
	req := testRequest{Limit: 10}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error for missing Name")
	}
	if len(verr.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(verr.Errors()))
	}
	if verr.Errors()[0].Field() != "Name" {
		t.Errorf("expected field 'Name', got %q", verr.Errors()[0].Field())
	}
	if !strings.Contains(verr.Error(), "Name is required") {
		t.Errorf("unexpected message: %s", verr.Error())
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	req := testRequest{Name: "averylongnamethatwontfit", Email: "not-an-email", Limit: 500}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(verr.Errors()), verr)
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected code VALIDATION_ERROR, got %q", apiErr.Code)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected multi-error details to contain 'fields'")
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	req := testRequest{Name: "ok", Email: "bad"}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Details["field"] != "Email" {
		t.Errorf("expected details.field 'Email', got %v", apiErr.Details["field"])
	}
	if !strings.Contains(apiErr.Message, "valid email") {
		t.Errorf("unexpected message: %s", apiErr.Message)
	}
}
