// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/metrics"
	"github.com/vigil-monitoring/vigil/internal/models"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
// This is the durable production store.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a new DuckDB-backed audit store.
// Call CreateTable during initialization before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_records table and its indexes if absent.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_records (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,

			-- Target resource (weak reference, may dangle)
			resource_type TEXT NOT NULL,
			resource_id TEXT,
			resource_name TEXT,

			-- Actor information
			actor_type TEXT NOT NULL,
			actor_id TEXT,
			actor_name TEXT,
			actor_email TEXT,

			-- Network information
			ip_address TEXT NOT NULL,
			user_agent TEXT,
			geolocation JSON,

			-- Request shape
			method TEXT NOT NULL,
			endpoint TEXT NOT NULL,

			-- Redacted request details
			details JSON,

			-- Outcome
			outcome_status TEXT NOT NULL,
			outcome_error TEXT,

			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for the supported query patterns
		CREATE INDEX IF NOT EXISTS idx_audit_action_ts ON audit_records(action, timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_actor_ts ON audit_records(actor_id, timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_records(resource_type, resource_id);
		CREATE INDEX IF NOT EXISTS idx_audit_ip ON audit_records(ip_address);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp DESC)
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Audit records table created/verified")
	return nil
}

// Save persists an audit record.
func (s *DuckDBStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO audit_records (
			id, timestamp, action,
			resource_type, resource_id, resource_name,
			actor_type, actor_id, actor_name, actor_email,
			ip_address, user_agent, geolocation,
			method, endpoint, details,
			outcome_status, outcome_error, created_at
		) VALUES (
			?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?, ?
		)
	`

	start := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Timestamp,
		string(record.Action),
		string(record.ResourceType),
		record.ResourceID,
		record.ResourceName,
		string(record.Actor.Type),
		record.Actor.ID,
		record.Actor.Name,
		record.Actor.Email,
		record.Network.IPAddress,
		record.Network.UserAgent,
		marshalGeolocation(record.Network.Geolocation),
		record.Request.Method,
		record.Request.Endpoint,
		marshalDetails(record.Details),
		string(record.Outcome.Status),
		record.Outcome.ErrorMessage,
		time.Now().UTC(),
	)
	metrics.RecordDBQuery("insert", "audit_records", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}

	return nil
}

// marshalGeolocation marshals the geolocation to a JSON string, nil when absent.
func marshalGeolocation(geo *models.Geolocation) *string {
	if geo == nil {
		return nil
	}
	if data, err := json.Marshal(geo); err == nil {
		str := string(data)
		return &str
	}
	return nil
}

// marshalDetails marshals the details map to a JSON string, nil when empty.
func marshalDetails(details map[string]interface{}) *string {
	if len(details) == 0 {
		return nil
	}
	if data, err := json.Marshal(details); err == nil {
		str := string(data)
		return &str
	}
	return nil
}

// Get retrieves a record by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := s.baseSelect() + " WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}

	return record, nil
}

// Query retrieves records matching the filter.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := s.buildQuery(filter, false)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "audit_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecordFromRows(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit record row")
			continue
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}

	return records, nil
}

// Count returns the number of records matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := s.buildQuery(filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	return count, nil
}

// DeleteOlderThan removes records with a timestamp before the cutoff.
func (s *DuckDBStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_records WHERE timestamp < ?`, cutoff)
	metrics.RecordDBQuery("delete", "audit_records", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit records: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	return count, nil
}

// GetStats returns statistics about the audit store.
func (s *DuckDBStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		RecordsByAction:   make(map[string]int64),
		RecordsByResource: make(map[string]int64),
		RecordsByOutcome:  make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records").Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	actionCounts, err := s.countByColumn(ctx, "action")
	if err != nil {
		return nil, err
	}
	stats.RecordsByAction = actionCounts

	resourceCounts, err := s.countByColumn(ctx, "resource_type")
	if err != nil {
		return nil, err
	}
	stats.RecordsByResource = resourceCounts

	outcomeCounts, err := s.countByColumn(ctx, "outcome_status")
	if err != nil {
		return nil, err
	}
	stats.RecordsByOutcome = outcomeCounts

	var oldest, newest sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		"SELECT MIN(timestamp), MAX(timestamp) FROM audit_records").Scan(&oldest, &newest); err == nil {
		if oldest.Valid {
			stats.OldestRecord = &oldest.Time
		}
		if newest.Valid {
			stats.NewestRecord = &newest.Time
		}
	}

	return stats, nil
}

// countByColumn executes a GROUP BY query and returns counts per value.
func (s *DuckDBStore) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM audit_records GROUP BY %s", column, column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err == nil {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

// buildQuery constructs the SQL query for the filter.
func (s *DuckDBStore) buildQuery(filter QueryFilter, countOnly bool) (string, []interface{}) {
	conditions, args := buildFilterConditions(filter)

	query := "SELECT COUNT(*) FROM audit_records"
	if !countOnly {
		query = s.baseSelect()
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !countOnly {
		query = appendOrderAndLimit(query, filter)
	}

	return query, args
}

func buildFilterConditions(filter QueryFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if cond := buildSliceCondition("action", filter.Actions, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := buildSliceCondition("outcome_status", filter.Outcomes, &args); cond != "" {
		conditions = append(conditions, cond)
	}

	conditions, args = appendStringCondition(conditions, args, "resource_type", string(filter.ResourceType))
	conditions, args = appendStringCondition(conditions, args, "resource_id", filter.ResourceID)
	conditions, args = appendStringCondition(conditions, args, "actor_id", filter.ActorID)
	conditions, args = appendStringCondition(conditions, args, "actor_type", string(filter.ActorType))
	conditions, args = appendStringCondition(conditions, args, "ip_address", filter.IPAddress)

	if filter.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}

	return conditions, args
}

// buildSliceCondition creates a SQL IN condition for a slice of string values.
func buildSliceCondition[T ~string](column string, values []T, args *[]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, string(v))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

// appendStringCondition adds a string equality condition if value is non-empty.
func appendStringCondition(conditions []string, args []interface{}, column, value string) ([]string, []interface{}) {
	if value != "" {
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}
	return conditions, args
}

func appendOrderAndLimit(query string, filter QueryFilter) string {
	orderBy := "timestamp"
	validFields := map[string]bool{
		"timestamp": true, "action": true, "resource_type": true,
		"actor_id": true, "outcome_status": true, "created_at": true,
	}
	if filter.OrderBy != "" && validFields[filter.OrderBy] {
		orderBy = filter.OrderBy
	}

	if filter.OrderDesc {
		query += fmt.Sprintf(" ORDER BY %s DESC", orderBy)
	} else {
		query += fmt.Sprintf(" ORDER BY %s ASC", orderBy)
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query
}

// baseSelect returns the SELECT statement for audit records.
// JSON columns are cast to VARCHAR for proper scanning.
func (s *DuckDBStore) baseSelect() string {
	return `
		SELECT
			id, timestamp, action,
			resource_type, resource_id, resource_name,
			actor_type, actor_id, actor_name, actor_email,
			ip_address, user_agent,
			CAST(geolocation AS VARCHAR) as geolocation,
			method, endpoint,
			CAST(details AS VARCHAR) as details,
			outcome_status, outcome_error
		FROM audit_records
	`
}

// scannedRecordData holds raw scanned values from the database.
type scannedRecordData struct {
	record       Record
	action       string
	resourceType string
	resourceID   sql.NullString
	resourceName sql.NullString
	actorType    string
	actorID      sql.NullString
	actorName    sql.NullString
	actorEmail   sql.NullString
	userAgent    sql.NullString
	geolocation  sql.NullString
	details      sql.NullString
	outcome      string
	outcomeError sql.NullString
}

func (d *scannedRecordData) scanDestinations() []interface{} {
	return []interface{}{
		&d.record.ID,
		&d.record.Timestamp,
		&d.action,
		&d.resourceType,
		&d.resourceID,
		&d.resourceName,
		&d.actorType,
		&d.actorID,
		&d.actorName,
		&d.actorEmail,
		&d.record.Network.IPAddress,
		&d.userAgent,
		&d.geolocation,
		&d.record.Request.Method,
		&d.record.Request.Endpoint,
		&d.details,
		&d.outcome,
		&d.outcomeError,
	}
}

func (d *scannedRecordData) toRecord() *Record {
	d.record.Action = Action(d.action)
	d.record.ResourceType = ResourceType(d.resourceType)
	d.record.ResourceID = d.resourceID.String
	d.record.ResourceName = d.resourceName.String
	d.record.Actor = Actor{
		Type:  ActorType(d.actorType),
		ID:    d.actorID.String,
		Name:  d.actorName.String,
		Email: d.actorEmail.String,
	}
	d.record.Network.UserAgent = d.userAgent.String
	d.record.Outcome = Outcome{
		Status:       OutcomeStatus(d.outcome),
		ErrorMessage: d.outcomeError.String,
	}

	if d.geolocation.Valid && d.geolocation.String != "" {
		var geo models.Geolocation
		if err := json.Unmarshal([]byte(d.geolocation.String), &geo); err == nil {
			d.record.Network.Geolocation = &geo
		}
	}
	if d.details.Valid && d.details.String != "" {
		var details map[string]interface{}
		if err := json.Unmarshal([]byte(d.details.String), &details); err == nil {
			d.record.Details = details
		}
	}

	return &d.record
}

func scanRecord(row *sql.Row) (*Record, error) {
	var data scannedRecordData
	if err := row.Scan(data.scanDestinations()...); err != nil {
		return nil, err
	}
	return data.toRecord(), nil
}

func scanRecordFromRows(rows *sql.Rows) (*Record, error) {
	var data scannedRecordData
	if err := rows.Scan(data.scanDestinations()...); err != nil {
		return nil, err
	}
	return data.toRecord(), nil
}
