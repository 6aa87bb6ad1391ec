// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"context"
	"strings"
	"testing"
	"time"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(100)
	ctx := context.Background()

	records := []*Record{
		{
			ID: "r1", Action: ActionCreateWebsite, ResourceType: ResourceWebsite,
			ResourceID: "w1", Actor: Actor{Type: ActorAdmin, ID: "a1", Name: "Root"},
			Network: Network{IPAddress: "203.0.113.5"},
			Request: RequestInfo{Method: "POST", Endpoint: "/api/admin/websites"},
			Outcome: Outcome{Status: OutcomeSuccess},
		},
		{
			ID: "r2", Action: ActionDeleteWebsite, ResourceType: ResourceWebsite,
			ResourceID: "w9", ResourceName: "Example",
			Actor:   Actor{Type: ActorAdmin, ID: "a1", Name: "Root"},
			Network: Network{IPAddress: "203.0.113.5"},
			Request: RequestInfo{Method: "DELETE", Endpoint: "/api/admin/websites/W9"},
			Outcome: Outcome{Status: OutcomeSuccess},
		},
		{
			ID: "r3", Action: ActionLogin, ResourceType: ResourceSystem,
			Actor:   Actor{Type: ActorUser, ID: "u1", Email: "u1@example.com"},
			Network: Network{IPAddress: "198.51.100.7"},
			Request: RequestInfo{Method: "POST", Endpoint: "/api/login"},
			Outcome: Outcome{Status: OutcomeFailure, ErrorMessage: "bad credentials"},
		},
	}

	for _, r := range records {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("seed save failed: %v", err)
		}
	}
	return store
}

func TestMemoryStoreSaveValidates(t *testing.T) {
	store := NewMemoryStore(10)

	err := store.Save(context.Background(), &Record{
		Action:       "BOGUS",
		ResourceType: ResourceUser,
	})
	if err == nil {
		t.Error("expected validation error for unknown action")
	}

	err = store.Save(context.Background(), &Record{
		Action:       ActionCreateUser,
		ResourceType: "gadget",
	})
	if err == nil {
		t.Error("expected validation error for unknown resource type")
	}
}

func TestMemoryStoreSaveDefaults(t *testing.T) {
	store := NewMemoryStore(10)

	record := &Record{ID: "d1", Action: ActionSystemAction, ResourceType: ResourceSystem}
	if err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Network.IPAddress != "unknown" {
		t.Errorf("expected default ip 'unknown', got %q", got.Network.IPAddress)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestMemoryStoreQueryFilters(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	t.Run("by action", func(t *testing.T) {
		results, err := store.Query(ctx, QueryFilter{Actions: []Action{ActionDeleteWebsite}})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 1 || results[0].ID != "r2" {
			t.Errorf("expected [r2], got %v", results)
		}
	})

	t.Run("by actor", func(t *testing.T) {
		results, err := store.Query(ctx, QueryFilter{ActorID: "a1"})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 records for actor a1, got %d", len(results))
		}
	})

	t.Run("by resource", func(t *testing.T) {
		results, err := store.Query(ctx, QueryFilter{ResourceType: ResourceWebsite, ResourceID: "w9"})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 1 || results[0].ResourceName != "Example" {
			t.Errorf("expected the w9 record, got %v", results)
		}
	})

	t.Run("by ip", func(t *testing.T) {
		count, err := store.Count(ctx, QueryFilter{IPAddress: "198.51.100.7"})
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 record from 198.51.100.7, got %d", count)
		}
	})

	t.Run("by outcome", func(t *testing.T) {
		results, err := store.Query(ctx, QueryFilter{Outcomes: []OutcomeStatus{OutcomeFailure}})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 1 || results[0].Outcome.ErrorMessage != "bad credentials" {
			t.Errorf("expected the failed login record, got %v", results)
		}
	})

	t.Run("recent first with limit", func(t *testing.T) {
		results, err := store.Query(ctx, QueryFilter{Limit: 2})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ID != "r3" {
			t.Errorf("expected most recent record first, got %s", results[0].ID)
		}
	})
}

func TestMemoryStoreRetention(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	expired := &Record{
		ID: "old", Action: ActionLogin, ResourceType: ResourceSystem,
		Timestamp: time.Now().AddDate(0, 0, -91),
	}
	fresh := &Record{
		ID: "new", Action: ActionLogin, ResourceType: ResourceSystem,
		Timestamp: time.Now(),
	}
	if err := store.Save(ctx, expired); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(ctx, fresh); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cutoff := time.Now().AddDate(0, 0, -90)
	deleted, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted record, got %d", deleted)
	}

	if _, err := store.Get(ctx, "old"); err == nil {
		t.Error("expected expired record to be gone")
	}
	if _, err := store.Get(ctx, "new"); err != nil {
		t.Errorf("expected fresh record to survive: %v", err)
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		r := validRecord()
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	if store.Len() > 12 {
		t.Errorf("expected bounded store, got %d records", store.Len())
	}
}

func TestGetStats(t *testing.T) {
	store := seedStore(t)

	stats, err := store.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.TotalRecords != 3 {
		t.Errorf("expected 3 total records, got %d", stats.TotalRecords)
	}
	if stats.RecordsByAction["LOGIN"] != 1 {
		t.Errorf("expected 1 LOGIN record, got %d", stats.RecordsByAction["LOGIN"])
	}
	if stats.RecordsByResource["website"] != 2 {
		t.Errorf("expected 2 website records, got %d", stats.RecordsByResource["website"])
	}
	if stats.RecordsByOutcome["failure"] != 1 {
		t.Errorf("expected 1 failure record, got %d", stats.RecordsByOutcome["failure"])
	}
	if stats.OldestRecord == nil || stats.NewestRecord == nil {
		t.Error("expected time range to be populated")
	}
}

func TestJSONExporter(t *testing.T) {
	store := seedStore(t)
	records, err := store.Query(context.Background(), DefaultQueryFilter())
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	data, err := (&JSONExporter{}).Export(records)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(string(data), "DELETE_WEBSITE") {
		t.Error("expected JSON export to contain actions")
	}
}

func TestCEFExporter(t *testing.T) {
	store := seedStore(t)
	records, err := store.Query(context.Background(), DefaultQueryFilter())
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	data, err := NewCEFExporter().Export(records)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 CEF lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "CEF:0|Vigil|UptimeMonitoring|") {
			t.Errorf("unexpected CEF header: %s", line)
		}
	}
}

func TestCEFEscaping(t *testing.T) {
	exporter := NewCEFExporter()
	records := []Record{{
		Action:       ActionSystemAction,
		ResourceType: ResourceSystem,
		ResourceName: "pipe|equals=back\\slash",
		Network:      Network{IPAddress: "unknown"},
		Timestamp:    time.Now(),
		Outcome:      Outcome{Status: OutcomeSuccess},
	}}

	data, err := exporter.Export(records)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `pipe\|equals\=back\\slash`) {
		t.Errorf("expected escaped extension value, got: %s", out)
	}
}
