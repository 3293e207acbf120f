package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"medharvest/internal/adapters/observability"
)

// Cache is a bounded in-process fallback used when no Redis address is
// configured. Entries live for the duration of the run; once the cap is
// reached new sets evict an arbitrary existing entry, which is acceptable
// for a best-effort geocode cache.
type Cache struct {
	mu    sync.Mutex
	cap   int
	items map[string]entry
}

type entry struct {
	data    []byte
	expires time.Time
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Cache{cap: capacity, items: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.items[key]
	if ok && !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.data, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var exp time.Time
	if ttlSec > 0 {
		exp = time.Now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.cap {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[key] = entry{data: b, expires: exp}
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}
