// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expiry is a process-lifetime in-memory cache of values with
// explicit expiry. It replaces ad hoc value+deadline pairs at call
// sites; components receive a Cache by injection, never as a global.
package expiry

import (
	"sync"
	"time"
)

// Cache stores values with per-entry expiry. Safe for concurrent use.
type Cache[V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]entry[V]
}

type entry[V any] struct {
	value    V
	deadline time.Time
}

// New returns a Cache whose entries live for ttl. A non-positive ttl
// means entries never expire.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().After(e.deadline) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh deadline.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, deadline: c.now().Add(c.ttl)}
}

// Len returns the number of stored entries, counting expired ones not
// yet evicted.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
