// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func validRecord() *Record {
	return &Record{
		Action:       ActionCreateWebsite,
		ResourceType: ResourceWebsite,
		ResourceID:   "w1",
		Actor:        Actor{Type: ActorAdmin, ID: "a1", Name: "Root"},
		Network:      Network{IPAddress: "203.0.113.5"},
		Request:      RequestInfo{Method: "POST", Endpoint: "/api/admin/websites"},
		Outcome:      Outcome{Status: OutcomeSuccess},
	}
}

// blockingStore blocks Save calls until released; used to verify drop and
// non-blocking behavior.
type blockingStore struct {
	MemoryStore
	release chan struct{}
}

func (s *blockingStore) Save(ctx context.Context, record *Record) error {
	select {
	case <-s.release:
		return s.MemoryStore.Save(ctx, record)
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failingStore struct {
	MemoryStore
	mu    sync.Mutex
	calls int
}

func (s *failingStore) Save(_ context.Context, _ *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errors.New("connectivity lost")
}

func (s *failingStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRecorderEnqueueAndPersist(t *testing.T) {
	store := NewMemoryStore(100)
	recorder := NewRecorder(store, &Config{Enabled: true, BufferSize: 10, WriteTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = recorder.Serve(ctx)
		close(done)
	}()

	if !recorder.Enqueue(validRecord()) {
		t.Fatal("expected enqueue to succeed")
	}

	// Wait for the async write
	deadline := time.After(2 * time.Second)
	for store.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("record was not persisted")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRecorderAssignsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore(100)
	recorder := NewRecorder(store, nil)

	record := validRecord()
	if !recorder.Enqueue(record) {
		t.Fatal("expected enqueue to succeed")
	}

	if record.ID == "" {
		t.Error("expected ID to be assigned on enqueue")
	}
	if record.Timestamp.IsZero() {
		t.Error("expected timestamp to be set on enqueue")
	}
}

func TestRecorderRejectsInvalidRecord(t *testing.T) {
	store := NewMemoryStore(100)
	recorder := NewRecorder(store, nil)

	bad := validRecord()
	bad.Action = "NOT_AN_ACTION"
	if recorder.Enqueue(bad) {
		t.Error("expected invalid action to be rejected")
	}

	bad = validRecord()
	bad.ResourceType = "gadget"
	if recorder.Enqueue(bad) {
		t.Error("expected invalid resource type to be rejected")
	}

	if recorder.QueueLen() != 0 {
		t.Errorf("expected empty queue, got %d", recorder.QueueLen())
	}
}

func TestRecorderDisabled(t *testing.T) {
	store := NewMemoryStore(100)
	recorder := NewRecorder(store, &Config{Enabled: false, BufferSize: 10})

	if recorder.Enqueue(validRecord()) {
		t.Error("expected enqueue to be rejected when disabled")
	}
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	recorder := NewRecorder(store, &Config{Enabled: true, BufferSize: 2, WriteTimeout: 10 * time.Second})

	// No Serve goroutine running: the queue fills and stays full.
	if !recorder.Enqueue(validRecord()) {
		t.Fatal("first enqueue should succeed")
	}
	if !recorder.Enqueue(validRecord()) {
		t.Fatal("second enqueue should succeed")
	}
	if recorder.Enqueue(validRecord()) {
		t.Error("third enqueue should drop: queue is full")
	}
	if recorder.QueueLen() != 2 {
		t.Errorf("expected queue length 2, got %d", recorder.QueueLen())
	}
}

func TestRecorderDrainsOnShutdown(t *testing.T) {
	store := NewMemoryStore(100)
	recorder := NewRecorder(store, &Config{Enabled: true, BufferSize: 10, WriteTimeout: time.Second})

	// Enqueue before Serve starts so everything is queued.
	for i := 0; i < 5; i++ {
		if !recorder.Enqueue(validRecord()) {
			t.Fatalf("enqueue %d failed", i)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already canceled: Serve should drain and exit

	err := recorder.Serve(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if store.Len() != 5 {
		t.Errorf("expected 5 records drained to store, got %d", store.Len())
	}
}

func TestRecorderSwallowsPersistErrors(t *testing.T) {
	store := &failingStore{}
	recorder := NewRecorder(store, &Config{Enabled: true, BufferSize: 10, WriteTimeout: time.Second})

	recorder.Enqueue(validRecord())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Serve must not panic or return the store error; failures are logged
	// and dropped.
	if err := recorder.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if store.callCount() != 1 {
		t.Errorf("expected 1 save attempt, got %d", store.callCount())
	}
}

func TestSweeperDeletesExpired(t *testing.T) {
	store := NewMemoryStore(100)

	old := validRecord()
	old.Timestamp = time.Now().AddDate(0, 0, -91)
	recent := validRecord()
	recent.Timestamp = time.Now()

	if err := store.Save(context.Background(), old); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(context.Background(), recent); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	sweeper := NewSweeper(store, &Config{RetentionDays: 90, CleanupInterval: time.Hour})
	sweeper.sweep(context.Background())

	if store.Len() != 1 {
		t.Fatalf("expected 1 record after sweep, got %d", store.Len())
	}
	remaining, err := store.Query(context.Background(), DefaultQueryFilter())
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if remaining[0].Timestamp.Before(time.Now().AddDate(0, 0, -90)) {
		t.Error("expected the expired record to be removed")
	}
}
