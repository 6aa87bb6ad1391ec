// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package geoip

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/vigil-monitoring/vigil/internal/models"
)

// Cache is the lookup cache consulted before the provider chain.
type Cache interface {
	Get(ctx context.Context, ipAddress string) (*models.Geolocation, error)
	Set(geo *models.Geolocation) error
}

const geoCachePrefix = "geo:"

// BadgerCache stores geolocation results in BadgerDB with a TTL, so repeat
// lookups for the same client IP avoid external API quota. Expired entries
// are reclaimed by Badger itself.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerCache creates a geolocation cache on an existing Badger database.
// Entries expire after ttl (30 days is a reasonable default; locations for
// a given IP rarely move faster than that).
func NewBadgerCache(db *badger.DB, ttl time.Duration) *BadgerCache {
	return &BadgerCache{db: db, ttl: ttl}
}

// Get returns the cached geolocation for an IP, or (nil, nil) on a miss.
func (c *BadgerCache) Get(_ context.Context, ipAddress string) (*models.Geolocation, error) {
	var geo *models.Geolocation

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(geoCachePrefix + ipAddress))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var g models.Geolocation
			if err := json.Unmarshal(val, &g); err != nil {
				return fmt.Errorf("failed to decode cached geolocation: %w", err)
			}
			geo = &g
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return geo, nil
}

// Set stores a geolocation result with the cache TTL.
func (c *BadgerCache) Set(geo *models.Geolocation) error {
	data, err := json.Marshal(geo)
	if err != nil {
		return fmt.Errorf("failed to encode geolocation: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(geoCachePrefix+geo.IPAddress), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}
