// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	records []Record
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		records: make([]Record, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Save persists an audit record.
func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Enforce max length by evicting the oldest 10%
	if len(s.records) >= s.maxLen {
		removeCount := s.maxLen / 10
		s.records = s.records[removeCount:]
	}

	s.records = append(s.records, *record)
	return nil
}

// Get retrieves a record by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			record := s.records[i]
			return &record, nil
		}
	}

	return nil, fmt.Errorf("audit record not found: %s", id)
}

// Query retrieves records matching the filter, recent first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Record
	skipped := 0

	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if !matchesFilter(&record, &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}

		results = append(results, record)

		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}

	return results, nil
}

// matchesFilter returns true if the record matches all filter criteria.
//
//nolint:gocyclo // complexity inherent to multi-criteria filter matching
func matchesFilter(record *Record, filter *QueryFilter) bool {
	if len(filter.Actions) > 0 {
		found := false
		for _, a := range filter.Actions {
			if record.Action == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Outcomes) > 0 {
		found := false
		for _, o := range filter.Outcomes {
			if record.Outcome.Status == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.ResourceType != "" && record.ResourceType != filter.ResourceType {
		return false
	}
	if filter.ResourceID != "" && record.ResourceID != filter.ResourceID {
		return false
	}
	if filter.ActorID != "" && record.Actor.ID != filter.ActorID {
		return false
	}
	if filter.ActorType != "" && record.Actor.Type != filter.ActorType {
		return false
	}
	if filter.IPAddress != "" && record.Network.IPAddress != filter.IPAddress {
		return false
	}

	if filter.StartTime != nil && record.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && record.Timestamp.After(*filter.EndTime) {
		return false
	}

	return true
}

// Count returns the number of records matching the filter.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.records {
		if matchesFilter(&s.records[i], &filter) {
			count++
		}
	}

	return count, nil
}

// DeleteOlderThan removes records with a timestamp before the cutoff.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []Record
	var deleted int64

	for idx := range s.records {
		if s.records[idx].Timestamp.Before(cutoff) {
			deleted++
		} else {
			kept = append(kept, s.records[idx])
		}
	}

	s.records = kept
	return deleted, nil
}

// GetStats returns statistics for the memory store.
func (s *MemoryStore) GetStats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalRecords:      int64(len(s.records)),
		RecordsByAction:   make(map[string]int64),
		RecordsByResource: make(map[string]int64),
		RecordsByOutcome:  make(map[string]int64),
	}

	for idx := range s.records {
		record := &s.records[idx]
		stats.RecordsByAction[string(record.Action)]++
		stats.RecordsByResource[string(record.ResourceType)]++
		stats.RecordsByOutcome[string(record.Outcome.Status)]++

		if stats.OldestRecord == nil || record.Timestamp.Before(*stats.OldestRecord) {
			t := record.Timestamp
			stats.OldestRecord = &t
		}
		if stats.NewestRecord == nil || record.Timestamp.After(*stats.NewestRecord) {
			t := record.Timestamp
			stats.NewestRecord = &t
		}
	}

	return stats, nil
}

// Clear removes all records (for testing).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

// Len returns the number of records in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// JSONExporter exports records in JSON format.
type JSONExporter struct{}

// Export exports records to indented JSON.
func (e *JSONExporter) Export(records []Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

// CEFExporter exports records in Common Event Format for SIEM integration.
type CEFExporter struct {
	DeviceVendor  string
	DeviceProduct string
	DeviceVersion string
}

// NewCEFExporter creates a new CEF exporter with defaults.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{
		DeviceVendor:  "Vigil",
		DeviceProduct: "UptimeMonitoring",
		DeviceVersion: "1.0",
	}
}

// Export exports records to CEF.
// CEF Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(records []Record) ([]byte, error) {
	var lines []string

	for idx := range records {
		record := &records[idx]

		line := fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
			e.escape(e.DeviceVendor),
			e.escape(e.DeviceProduct),
			e.escape(e.DeviceVersion),
			e.escape(string(record.Action)),
			e.escape(fmt.Sprintf("%s %s", record.Request.Method, record.Request.Endpoint)),
			e.cefSeverity(record.Outcome.Status),
			e.buildExtension(record),
		)

		lines = append(lines, line)
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// cefSeverity maps outcome status to CEF severity (0-10).
func (e *CEFExporter) cefSeverity(status OutcomeStatus) int {
	switch status {
	case OutcomeSuccess:
		return 3
	case OutcomeFailure:
		return 5
	case OutcomeError:
		return 7
	default:
		return 0
	}
}

// buildExtension builds the CEF extension string.
func (e *CEFExporter) buildExtension(record *Record) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("rt=%d", record.Timestamp.UnixMilli()))

	if record.Actor.ID != "" {
		parts = append(parts, fmt.Sprintf("suser=%s", e.escape(record.Actor.Name)))
		parts = append(parts, fmt.Sprintf("suid=%s", e.escape(record.Actor.ID)))
	}

	parts = append(parts, fmt.Sprintf("src=%s", e.escape(record.Network.IPAddress)))

	if record.ResourceID != "" {
		parts = append(parts, fmt.Sprintf("duid=%s", e.escape(record.ResourceID)))
	}
	if record.ResourceName != "" {
		parts = append(parts, fmt.Sprintf("duser=%s", e.escape(record.ResourceName)))
	}

	parts = append(parts, fmt.Sprintf("act=%s", e.escape(string(record.Action))))
	parts = append(parts, fmt.Sprintf("outcome=%s", e.escape(string(record.Outcome.Status))))

	return strings.Join(parts, " ")
}

// escape escapes special characters for CEF format.
func (e *CEFExporter) escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
