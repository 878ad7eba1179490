// Package idempotency implements the TTL+LRU idempotency cache:
// a key maps to a previously computed result so a retried call
// with the same idempotency key returns the cached result instead of
// re-executing, with conflict detection for a key reused with a
// different payload. The background sweep runs on
// github.com/robfig/cron/v3 rather than a bare ticker.
package idempotency

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ConflictError is raised when a stored value exists for a key but the
// caller's fingerprint of the inbound request differs from the one that
// produced the cached value.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return "idempotency key " + e.Key + " already used with a different request"
}

type entry struct {
	value any
	fingerprint string
	insertedAt time.Time
}

// Cache is a process-wide idempotency cache. Default TTL 900s and
// capacity 1000 match
type Cache struct {
	mu sync.Mutex
	entries map[string]*entry
	order []string // insertion order, oldest first, for eviction
	ttl time.Duration
	maxEntries int
	cron *cron.Cron
}

// New creates a cache with the given TTL and capacity. A zero ttl or
// maxEntries falls back to the defaults (900s, 1000 entries).
func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = 900 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c := &Cache{
		entries: make(map[string]*entry),
		ttl: ttl,
		maxEntries: maxEntries,
	}
	c.startSweeper()
	return c
}

// startSweeper schedules cleanupExpired every minute. A cron schedule
// (rather than a raw ticker) lets an operator later tune the sweep
// cadence without code changes.
func (c *Cache) startSweeper() {
	c.cron = cron.New()
	if _, err := c.cron.AddFunc("@every 1m", c.CleanupExpired); err != nil {
		slog.Error("idempotency cache: failed to schedule sweeper", "error", err)
		return
	}
	c.cron.Start()
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	if c.cron != nil {
		ctx := c.cron.Stop()
		<-ctx.Done()
	}
}

// Get returns the cached value for key. A lazy sweep runs on every read
// so an expired entry never surfaces even between cron ticks.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		c.remove(key)
		return nil, false
	}
	return e.value, true
}

// Store saves value under key, fingerprinted by fingerprint (an opaque
// hash of the inbound request the caller computes). If key already holds
// a value stored with a different fingerprint, Store returns
// ConflictError instead of overwriting it.
func (c *Cache) Store(key string, fingerprint string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && !c.expired(existing) {
		if fingerprint != "" && existing.fingerprint != "" && existing.fingerprint != fingerprint {
			return &ConflictError{Key: key}
		}
		existing.value = value
		return nil
	}

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = &entry{value: value, fingerprint: fingerprint, insertedAt: time.Now()}
	c.order = append(c.order, key)
	return nil
}

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && time.Since(e.insertedAt) > c.ttl
}

// evictOldest evicts the oldest entry by insertion time ("evicts
// the oldest entry by insertion time when at capacity").
func (c *Cache) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}

func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// CleanupExpired sweeps every expired entry. Safe to call directly in
// tests; the cron scheduler also calls it on its own cadence.
func (c *Cache) CleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if c.expired(e) {
			c.remove(key)
		}
	}
}

// Size returns the current entry count.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
