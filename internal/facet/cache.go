package facet

import (
	"context"
	"sync"
	"time"

	"faceted-catalog-service/internal/domain"
)

// Cache stores facet menus per scope. Get reports a miss with ok=false.
type Cache interface {
	Get(ctx context.Context, scope domain.Scope) (domain.FacetMenu, bool, error)
	Set(ctx context.Context, scope domain.Scope, menu domain.FacetMenu) error
}

type memoryEntry struct {
	menu      domain.FacetMenu
	fetchedAt time.Time
}

// MemoryCache is a process-local Cache with a fixed TTL.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[domain.Scope]memoryEntry
}

// NewMemoryCache creates a MemoryCache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[domain.Scope]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, scope domain.Scope) (domain.FacetMenu, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[scope]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return domain.FacetMenu{}, false, nil
	}
	return e.menu, true, nil
}

func (c *MemoryCache) Set(_ context.Context, scope domain.Scope, menu domain.FacetMenu) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[scope] = memoryEntry{menu: menu, fetchedAt: c.now()}
	return nil
}

