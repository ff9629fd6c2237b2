// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string](time.Hour)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "one")
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", got)

	c.Set("a", "two")
	got, _ = c.Get("a")
	assert.Equal(t, "two", got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := New[int](time.Minute)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("n", 42)
	got, ok := c.Get("n")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	clock = clock.Add(2 * time.Minute)
	_, ok = c.Get("n")
	assert.False(t, ok, "expired entry must not be returned")
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := New[int](0)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("n", 7)
	clock = clock.Add(24 * time.Hour)
	got, ok := c.Get("n")
	assert.True(t, ok)
	assert.Equal(t, 7, got)
}
