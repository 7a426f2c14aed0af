package gateway

import (
	"sync"
	"time"
)

// ttlCache is a small expiring cache for reference data. User-scoped
// responses are never cached.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

func newTTLCache() *ttlCache {
	return &ttlCache{entries: make(map[string]cacheEntry)}
}

func (tc *ttlCache) Get(key string) (any, bool) {
	tc.mu.RLock()
	entry, ok := tc.entries[key]
	tc.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (tc *ttlCache) Set(key string, value any, ttl time.Duration) {
	tc.mu.Lock()
	tc.entries[key] = cacheEntry{value: value, expires: time.Now().Add(ttl)}
	tc.mu.Unlock()
}

func (tc *ttlCache) Invalidate(key string) {
	tc.mu.Lock()
	delete(tc.entries, key)
	tc.mu.Unlock()
}
