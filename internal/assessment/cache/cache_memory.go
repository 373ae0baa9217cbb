// Package cache implements the shared result cache. The cache is an
// optimization, never a correctness dependency: identical computations are
// idempotent, so last-write-wins on racing puts is safe.
package cache

import (
	"context"
	"sync"
	"time"

	"caregate/internal/domain"
)

type entry struct {
	rec       *domain.DecisionRecord
	expiresAt time.Time
}

// InMemoryCache is a TTL map cache for single-node runs.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]entry)}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (*domain.DecisionRecord, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.rec.Clone(), true, nil
}

func (c *InMemoryCache) Put(_ context.Context, key string, rec *domain.DecisionRecord, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{rec: rec.Clone(), expiresAt: time.Now().Add(ttl)}
	return nil
}
