// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Package store persists the monitored resources (websites, users, admins)
// in Badger. Records are JSON-encoded under typed key prefixes; listings
// iterate a prefix and decode in place.
package store

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vigil-monitoring/vigil/internal/logging"
	"github.com/vigil-monitoring/vigil/internal/models"
)

const (
	prefixWebsite = "website:"
	prefixUser    = "user:"
	prefixAdmin   = "admin:"
)

// ErrNotFound is returned when a resource does not exist.
var ErrNotFound = errors.New("store: not found")

// ResourceStore is the Badger-backed store for all monitored resources.
type ResourceStore struct {
	db *badger.DB
}

func NewResourceStore(db *badger.DB) *ResourceStore {
	return &ResourceStore{db: db}
}

// Open opens (or creates) a Badger database at path with Vigil defaults.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithCompactL0OnClose(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

func (s *ResourceStore) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *ResourceStore) get(key string, v interface{}) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ResourceStore) delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// listPrefix decodes every value under prefix via decode, which receives
// the raw bytes of each record.
func (s *ResourceStore) listPrefix(prefix string, decode func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(decode); err != nil {
				logging.Warn().Err(err).
					Str("key", string(it.Item().Key())).
					Msg("Skipping undecodable record")
			}
		}
		return nil
	})
}

// --- Websites ---

func (s *ResourceStore) CreateWebsite(w *models.Website) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.Status == "" {
		w.Status = "unknown"
	}
	return s.set(prefixWebsite+w.ID, w)
}

func (s *ResourceStore) GetWebsite(id string) (*models.Website, error) {
	var w models.Website
	if err := s.get(prefixWebsite+id, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *ResourceStore) ListWebsites() ([]*models.Website, error) {
	var out []*models.Website
	err := s.listPrefix(prefixWebsite, func(val []byte) error {
		var w models.Website
		if err := json.Unmarshal(val, &w); err != nil {
			return err
		}
		out = append(out, &w)
		return nil
	})
	return out, err
}

func (s *ResourceStore) UpdateWebsite(w *models.Website) error {
	existing, err := s.GetWebsite(w.ID)
	if err != nil {
		return err
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = time.Now().UTC()
	return s.set(prefixWebsite+w.ID, w)
}

func (s *ResourceStore) DeleteWebsite(id string) error {
	return s.delete(prefixWebsite + id)
}

// --- Users ---

func (s *ResourceStore) CreateUser(u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return s.set(prefixUser+u.ID, u)
}

func (s *ResourceStore) GetUser(id string) (*models.User, error) {
	var u models.User
	if err := s.get(prefixUser+id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *ResourceStore) ListUsers() ([]*models.User, error) {
	var out []*models.User
	err := s.listPrefix(prefixUser, func(val []byte) error {
		var u models.User
		if err := json.Unmarshal(val, &u); err != nil {
			return err
		}
		out = append(out, &u)
		return nil
	})
	return out, err
}

func (s *ResourceStore) UpdateUser(u *models.User) error {
	existing, err := s.GetUser(u.ID)
	if err != nil {
		return err
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	return s.set(prefixUser+u.ID, u)
}

func (s *ResourceStore) DeleteUser(id string) error {
	return s.delete(prefixUser + id)
}

// SetUserSuspended flips the suspension flag and returns the updated user.
func (s *ResourceStore) SetUserSuspended(id string, suspended bool) (*models.User, error) {
	u, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	u.Suspended = suspended
	u.UpdatedAt = time.Now().UTC()
	if err := s.set(prefixUser+id, u); err != nil {
		return nil, err
	}
	return u, nil
}

// --- Admins ---

func (s *ResourceStore) CreateAdmin(a *models.Admin) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	return s.set(prefixAdmin+a.ID, a)
}

func (s *ResourceStore) GetAdmin(id string) (*models.Admin, error) {
	var a models.Admin
	if err := s.get(prefixAdmin+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAdminByEmail scans the admin prefix for a matching email. Admin
// counts are small enough that a secondary index is not worth keeping.
func (s *ResourceStore) GetAdminByEmail(email string) (*models.Admin, error) {
	var found *models.Admin
	err := s.listPrefix(prefixAdmin, func(val []byte) error {
		var a models.Admin
		if err := json.Unmarshal(val, &a); err != nil {
			return err
		}
		if a.Email == email {
			found = &a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *ResourceStore) ListAdmins() ([]*models.Admin, error) {
	var out []*models.Admin
	err := s.listPrefix(prefixAdmin, func(val []byte) error {
		var a models.Admin
		if err := json.Unmarshal(val, &a); err != nil {
			return err
		}
		out = append(out, &a)
		return nil
	})
	return out, err
}

func (s *ResourceStore) UpdateAdmin(a *models.Admin) error {
	existing, err := s.GetAdmin(a.ID)
	if err != nil {
		return err
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	return s.set(prefixAdmin+a.ID, a)
}

func (s *ResourceStore) DeleteAdmin(id string) error {
	return s.delete(prefixAdmin + id)
}

// Counts returns resource totals for the comprehensive stats endpoint.
func (s *ResourceStore) Counts() (websites, users, admins int, err error) {
	count := func(prefix string) (int, error) {
		n := 0
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				n++
			}
			return nil
		})
		return n, err
	}
	if websites, err = count(prefixWebsite); err != nil {
		return
	}
	if users, err = count(prefixUser); err != nil {
		return
	}
	admins, err = count(prefixAdmin)
	return
}
