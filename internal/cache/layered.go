package cache

import (
	"errors"
	"time"
)

// LayeredCache checks a fast layer before a persistent one
type LayeredCache struct {
	memory     Cache
	disk       Cache
	promoteTTL time.Duration
}

// NewLayeredCache combines two layers. Disk hits are promoted to memory with promoteTTL.
func NewLayeredCache(memory, disk Cache, promoteTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:     memory,
		disk:       disk,
		promoteTTL: promoteTTL,
	}
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		recordLookup("memory", true)
		return val, true
	}
	recordLookup("memory", false)

	val, found := c.disk.Get(key)
	recordLookup("disk", found)
	if !found {
		return nil, false
	}

	_ = c.memory.Set(key, val, c.promoteTTL)
	return val, true
}

// Set stores a value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
