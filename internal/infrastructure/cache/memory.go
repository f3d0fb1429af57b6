package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCoordinator is the in-process fallback for the dedup window and
// per-resource leases. Used when Redis is disabled and by tests. Not safe
// across multiple instances.
type MemoryCoordinator struct {
	mu    sync.Mutex
	items map[string]time.Time
}

// NewMemoryCoordinator creates a new in-memory coordinator
func NewMemoryCoordinator() *MemoryCoordinator {
	mc := &MemoryCoordinator{
		items: make(map[string]time.Time),
	}

	go mc.cleanupExpired()

	return mc
}

// FirstSeen marks the dedup key inside the window
func (mc *MemoryCoordinator) FirstSeen(_ context.Context, dedupKey string, window time.Duration) (bool, error) {
	return mc.setNX("dedup:"+dedupKey, window), nil
}

// Forget releases a dedup key
func (mc *MemoryCoordinator) Forget(_ context.Context, dedupKey string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.items, "dedup:"+dedupKey)
	return nil
}

// AcquireLease takes the per-resource processing lease
func (mc *MemoryCoordinator) AcquireLease(_ context.Context, resource string, ttl time.Duration) (bool, error) {
	return mc.setNX("lease:"+resource, ttl), nil
}

// ReleaseLease releases the per-resource lease
func (mc *MemoryCoordinator) ReleaseLease(_ context.Context, resource string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.items, "lease:"+resource)
	return nil
}

func (mc *MemoryCoordinator) setNX(key string, ttl time.Duration) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if expiry, exists := mc.items[key]; exists && time.Now().Before(expiry) {
		return false
	}
	mc.items[key] = time.Now().Add(ttl)
	return true
}

// cleanupExpired periodically removes expired entries
func (mc *MemoryCoordinator) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		mc.mu.Lock()
		now := time.Now()
		for key, expiry := range mc.items {
			if now.After(expiry) {
				delete(mc.items, key)
			}
		}
		mc.mu.Unlock()
	}
}
