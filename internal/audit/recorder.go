// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/metrics"
)

// Config holds configuration for the audit recorder.
type Config struct {
	// Enabled controls whether audit recording is active.
	Enabled bool `json:"enabled"`

	// RetentionDays is how long to keep audit records.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the capacity of the async write queue.
	BufferSize int `json:"buffer_size"`

	// WriteTimeout bounds each store write.
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
		WriteTimeout:    5 * time.Second,
	}
}

// Recorder is the asynchronous audit writer. Records are accepted onto a
// bounded queue by Enqueue and drained to the store by Serve. A full queue
// drops the record: delivery is at-most-once, without retry, so the audit
// side channel can never add latency to the request path.
type Recorder struct {
	config *Config
	store  Store
	queue  chan *Record
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store Store, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	return &Recorder{
		config: config,
		store:  store,
		queue:  make(chan *Record, config.BufferSize),
	}
}

// Enqueue validates the record and places it on the write queue. Returns
// false when the record was rejected (disabled, invalid, or queue full);
// rejection is logged operationally and never surfaced to the caller's
// client.
func (r *Recorder) Enqueue(record *Record) bool {
	if !r.config.Enabled {
		return false
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if err := record.Validate(); err != nil {
		logging.Warn().Err(err).Msg("Dropping invalid audit record")
		return false
	}

	select {
	case r.queue <- record:
		metrics.AuditRecordsEnqueued.Inc()
		metrics.AuditQueueDepth.Set(float64(len(r.queue)))
		return true
	default:
		metrics.AuditRecordsDropped.Inc()
		logging.Warn().
			Str("record_id", record.ID).
			Str("action", string(record.Action)).
			Msg("Audit queue full, dropping record")
		return false
	}
}

// Serve drains the queue until the context is canceled, then flushes any
// records already accepted. Implements suture.Service.
func (r *Recorder) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		case record := <-r.queue:
			r.write(record)
			metrics.AuditQueueDepth.Set(float64(len(r.queue)))
		}
	}
}

// drain writes out everything left on the queue without blocking for new
// records. Called once on shutdown.
func (r *Recorder) drain() {
	for {
		select {
		case record := <-r.queue:
			r.write(record)
		default:
			return
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Save(ctx, record); err != nil {
		metrics.AuditPersistErrors.Inc()
		logging.Error().
			Err(err).
			Str("record_id", record.ID).
			Str("action", string(record.Action)).
			Msg("Failed to save audit record")
		return
	}
	metrics.AuditRecordsPersisted.Inc()
}

// QueueLen returns the number of records waiting to be written.
func (r *Recorder) QueueLen() int {
	return len(r.queue)
}

// Query retrieves records matching the filter.
func (r *Recorder) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	return r.store.Query(ctx, filter)
}

// Count returns the number of records matching the filter.
func (r *Recorder) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return r.store.Count(ctx, filter)
}

// Get retrieves a single record by ID.
func (r *Recorder) Get(ctx context.Context, id string) (*Record, error) {
	return r.store.Get(ctx, id)
}

// GetStats returns aggregate statistics over the stored records.
func (r *Recorder) GetStats(ctx context.Context) (*Stats, error) {
	return r.store.GetStats(ctx)
}

// Sweeper periodically deletes records past the retention window. It is
// the only deletion mechanism for audit records. Implements suture.Service.
type Sweeper struct {
	store    Store
	interval time.Duration
	maxAge   time.Duration
}

// NewSweeper creates a retention sweeper from the recorder config.
func NewSweeper(store Store, config *Config) *Sweeper {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sweeper{
		store:    store,
		interval: config.CleanupInterval,
		maxAge:   time.Duration(config.RetentionDays) * 24 * time.Hour,
	}
}

// Serve runs the sweep loop until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)
	count, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit retention sweep failed")
		return
	}
	if count > 0 {
		metrics.AuditRecordsPurged.Add(float64(count))
		logging.Info().Int64("count", count).Time("cutoff", cutoff).Msg("Purged expired audit records")
	}
}
