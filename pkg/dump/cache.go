package dump

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// ModificationCache holds the dump results of one transaction. It is created
// with the transaction and dropped with it, entries are never shared across
// transactions.
type ModificationCache struct {
	m       *sync.RWMutex
	entries map[string]any
	group   singleflight.Group
}

func NewModificationCache() *ModificationCache {
	return &ModificationCache{
		m:       &sync.RWMutex{},
		entries: map[string]any{},
	}
}

func (c *ModificationCache) Get(key string) (any, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	v, exists := c.entries[key]
	return v, exists
}

func (c *ModificationCache) Put(key string, v any) {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries[key] = v
}

func (c *ModificationCache) Delete(key string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.entries, key)
}

func (c *ModificationCache) Len() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return len(c.entries)
}

// Clear drops all entries, e.g. after a write invalidated device state.
func (c *ModificationCache) Clear() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries = map[string]any{}
}
