// ABOUTME: Read-through cache for CRUD responses with TTL and prefix invalidation.
// ABOUTME: In-process expirable LRU; the registry is single-process, so the cache is too.

package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/voxmesh/voxmesh-gateway/internal/metrics"
)

// Cache wraps an expirable LRU keyed by string. Values are serialized
// response bodies; entries expire after the configured TTL regardless
// of access.
type Cache struct {
	lru *expirable.LRU[string, []byte]
}

// New creates a cache holding up to size entries with the given TTL.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	val, ok := c.lru.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheHits.WithLabelValues("miss").Inc()
	}
	return val, ok
}

// Set stores a value under key.
func (c *Cache) Set(key string, val []byte) {
	c.lru.Add(key, val)
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

// InvalidatePrefix removes every key with the given prefix. Used on
// writes to drop all cached list pages at once.
func (c *Cache) InvalidatePrefix(prefix string) {
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
