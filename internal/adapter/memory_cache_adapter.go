package adapter

import (
	"context"
	"sync"
	"time"

	"uti-assess/internal/domain"
)

// sweepEvery is how many writes pass between scans for expired keys.
const sweepEvery = 256

type memoryItem struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryCache keeps local histories and revoked token markers in process when
// no redis is configured. Expired keys are dropped on read and by a periodic sweep.
type MemoryCache struct {
	mu     sync.Mutex
	items  map[string]memoryItem
	writes int
	now    func() time.Time
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	if m.expired(item) {
		delete(m.items, key)
		return "", domain.ErrCacheMiss
	}
	return item.value, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: value}
	if expiration > 0 {
		item.expiresAt = m.now().Add(expiration)
	}
	m.items[key] = item

	m.writes++
	if m.writes%sweepEvery == 0 {
		m.sweep()
	}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryCache) Volatile() bool {
	return true
}

// Len reports how many keys are held, expired ones included until swept.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *MemoryCache) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt)
}

// sweep must be called with mu held.
func (m *MemoryCache) sweep() {
	for k, item := range m.items {
		if m.expired(item) {
			delete(m.items, k)
		}
	}
}
