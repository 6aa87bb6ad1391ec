// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/vigil-monitoring/vigil/internal/models"
)

// Action is the enumerated classification tag of an audit record.
type Action string

const (
	// Authentication actions
	ActionLogin  Action = "LOGIN"
	ActionLogout Action = "LOGOUT"

	// ActionLoginFailed is reserved in the schema but never emitted by
	// classification. A GET to a /login path is deliberately not logged.
	ActionLoginFailed Action = "LOGIN_FAILED"

	// User management actions
	ActionCreateUser   Action = "CREATE_USER"
	ActionUpdateUser   Action = "UPDATE_USER"
	ActionDeleteUser   Action = "DELETE_USER"
	ActionSuspendUser  Action = "SUSPEND_USER"
	ActionActivateUser Action = "ACTIVATE_USER"

	// Website management actions
	ActionCreateWebsite Action = "CREATE_WEBSITE"
	ActionUpdateWebsite Action = "UPDATE_WEBSITE"
	ActionDeleteWebsite Action = "DELETE_WEBSITE"
	ActionPingWebsite   Action = "PING_WEBSITE"

	// Admin management actions
	ActionCreateAdmin Action = "CREATE_ADMIN"
	ActionUpdateAdmin Action = "UPDATE_ADMIN"
	ActionDeleteAdmin Action = "DELETE_ADMIN"

	// Cross-resource actions
	ActionBulkOperation Action = "BULK_OPERATION"
	ActionExportData    Action = "EXPORT_DATA"
	ActionSystemAction  Action = "SYSTEM_ACTION"
)

// validActions is the closed set accepted by store validation.
var validActions = map[Action]bool{
	ActionLogin:         true,
	ActionLogout:        true,
	ActionLoginFailed:   true,
	ActionCreateUser:    true,
	ActionUpdateUser:    true,
	ActionDeleteUser:    true,
	ActionSuspendUser:   true,
	ActionActivateUser:  true,
	ActionCreateWebsite: true,
	ActionUpdateWebsite: true,
	ActionDeleteWebsite: true,
	ActionPingWebsite:   true,
	ActionCreateAdmin:   true,
	ActionUpdateAdmin:   true,
	ActionDeleteAdmin:   true,
	ActionBulkOperation: true,
	ActionExportData:    true,
	ActionSystemAction:  true,
}

// IsValid reports whether the action is a known enumeration value.
func (a Action) IsValid() bool {
	return validActions[a]
}

// ResourceType identifies the entity an action targets.
type ResourceType string

const (
	ResourceUser    ResourceType = "user"
	ResourceWebsite ResourceType = "website"
	ResourceAdmin   ResourceType = "admin"
	ResourceSystem  ResourceType = "system"
)

// IsValid reports whether the resource type is a known value.
func (r ResourceType) IsValid() bool {
	switch r {
	case ResourceUser, ResourceWebsite, ResourceAdmin, ResourceSystem:
		return true
	}
	return false
}

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorAdmin  ActorType = "admin"
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// OutcomeStatus indicates how the audited request ended.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomeError   OutcomeStatus = "error"
)

// Actor is the authenticated party credited with the action. ID, Name and
// Email are empty when the actor is unauthenticated or the system itself.
type Actor struct {
	Type  ActorType `json:"type"`
	ID    string    `json:"id,omitempty"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// Network captures where the request came from.
type Network struct {
	// IPAddress is required; "unknown" when unresolvable.
	IPAddress   string              `json:"ip_address"`
	Geolocation *models.Geolocation `json:"geolocation,omitempty"`
	UserAgent   string              `json:"user_agent,omitempty"`
}

// RequestInfo captures the HTTP shape of the audited request.
type RequestInfo struct {
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
}

// Outcome captures whether the request succeeded. ErrorMessage is set only
// when the status indicates failure and the response carried a message.
type Outcome struct {
	Status       OutcomeStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Record is one persisted audit entry. Records are immutable once written;
// there is no update path.
type Record struct {
	// ID is a unique identifier assigned at enqueue time.
	ID string `json:"id"`

	// Action classifies what was done. Always present.
	Action Action `json:"action"`

	// ResourceType identifies the target entity family. Always present.
	ResourceType ResourceType `json:"resource_type"`

	// ResourceID is a weak reference into the resource's own collection.
	// It may dangle if the resource is later deleted.
	ResourceID string `json:"resource_id,omitempty"`

	// ResourceName is a human-readable label captured at write time.
	// Denormalized; not kept in sync with later renames.
	ResourceName string `json:"resource_name,omitempty"`

	Actor   Actor       `json:"actor"`
	Network Network     `json:"network"`
	Request RequestInfo `json:"request"`

	// Details is the redacted merge of body, route params and query params.
	Details map[string]interface{} `json:"details,omitempty"`

	Outcome Outcome `json:"outcome"`

	// Timestamp anchors recency queries and retention expiry.
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the record's required fields and fills defaults.
// Action and ResourceType must be known enumeration values; IPAddress
// defaults to "unknown" and Timestamp to now when unset.
func (r *Record) Validate() error {
	if !r.Action.IsValid() {
		return fmt.Errorf("invalid audit action: %q", r.Action)
	}
	if !r.ResourceType.IsValid() {
		return fmt.Errorf("invalid resource type: %q", r.ResourceType)
	}
	if r.Network.IPAddress == "" {
		r.Network.IPAddress = "unknown"
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return nil
}

// Store defines the interface for audit record persistence.
type Store interface {
	// Save persists a record. The record must pass Validate.
	Save(ctx context.Context, record *Record) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// Query retrieves records matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// DeleteOlderThan removes records with a timestamp before the cutoff.
	// This is the only deletion mechanism.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// GetStats returns aggregate statistics about the stored records.
	GetStats(ctx context.Context) (*Stats, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Actions filters by action tags.
	Actions []Action `json:"actions,omitempty"`

	// ResourceType filters by target resource family.
	ResourceType ResourceType `json:"resource_type,omitempty"`

	// ResourceID filters by target resource.
	ResourceID string `json:"resource_id,omitempty"`

	// ActorID filters by actor ID.
	ActorID string `json:"actor_id,omitempty"`

	// ActorType filters by actor type.
	ActorType ActorType `json:"actor_type,omitempty"`

	// IPAddress filters by client address.
	IPAddress string `json:"ip_address,omitempty"`

	// Outcomes filters by outcome status.
	Outcomes []OutcomeStatus `json:"outcomes,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`

	// OrderBy specifies the sort field.
	OrderBy string `json:"order_by,omitempty"`

	// OrderDesc sorts in descending order.
	OrderDesc bool `json:"order_desc,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter (recent first).
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Limit:     100,
		OrderBy:   "timestamp",
		OrderDesc: true,
	}
}

// Stats holds aggregate statistics about the audit store.
type Stats struct {
	TotalRecords      int64            `json:"total_records"`
	RecordsByAction   map[string]int64 `json:"records_by_action"`
	RecordsByResource map[string]int64 `json:"records_by_resource"`
	RecordsByOutcome  map[string]int64 `json:"records_by_outcome"`
	OldestRecord      *time.Time       `json:"oldest_record,omitempty"`
	NewestRecord      *time.Time       `json:"newest_record,omitempty"`
}
