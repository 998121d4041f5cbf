package collector

import (
	"context"
	"sync"
	"time"

	"TickerCast/internal/model"
)

// Snapshot is what the loader memoises per request key.
type Snapshot struct {
	Bars []model.OHLCV    `json:"bars"`
	Meta *model.AssetMeta `json:"meta"`
	At   time.Time        `json:"at"`
}

// Cache stores snapshots with a time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) (*Snapshot, bool, error)
	Set(ctx context.Context, key string, snap *Snapshot, ttl time.Duration) error
}

type memoryItem struct {
	snap     *Snapshot
	expireAt time.Time
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || c.now().After(item.expireAt) {
		return nil, false, nil
	}
	return item.snap, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, snap *Snapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = memoryItem{snap: snap, expireAt: c.now().Add(ttl)}
	return nil
}

// Cleanup removes expired items.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.items {
		if now.After(v.expireAt) {
			delete(c.items, k)
		}
	}
}

// Len returns the number of stored items, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*Snapshot, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, *Snapshot, time.Duration) error {
	return nil
}
