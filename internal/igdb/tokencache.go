// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// tokenKeyPrefix namespaces token entries in shared stores.
const tokenKeyPrefix = "token:"

// BadgerTokenCache persists tokens in BadgerDB with native entry TTLs.
type BadgerTokenCache struct {
	db *badger.DB
}

// NewBadgerTokenCache creates a token cache on an open Badger database.
func NewBadgerTokenCache(db *badger.DB) *BadgerTokenCache {
	return &BadgerTokenCache{db: db}
}

// Get implements TokenCache.
func (c *BadgerTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	var token string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenKeyPrefix + key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		token = string(val)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger token get: %w", err)
	}
	return token, true, nil
}

// Set implements TokenCache.
func (c *BadgerTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(tokenKeyPrefix+key), []byte(token))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger token set: %w", err)
	}
	return nil
}

// Delete implements TokenCache.
func (c *BadgerTokenCache) Delete(_ context.Context, key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(tokenKeyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("badger token delete: %w", err)
	}
	return nil
}

// MemoryTokenCache keeps tokens in process memory. Used for tests and
// single-shot runs without persistent state.
type MemoryTokenCache struct {
	mu      sync.Mutex
	entries map[string]memoryToken
	now     func() time.Time
}

type memoryToken struct {
	value   string
	expires time.Time // zero means no expiry
}

// NewMemoryTokenCache creates an empty in-memory token cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{entries: make(map[string]memoryToken), now: time.Now}
}

// Get implements TokenCache.
func (c *MemoryTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set implements TokenCache.
func (c *MemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryToken{value: token}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

// Delete implements TokenCache.
func (c *MemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
