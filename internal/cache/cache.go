// Package cache stores fetched source documents and robots.txt bodies.
// Pipeline results are never cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/factcheck/internal/metrics"
	"github.com/ppiankov/factcheck/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a filesystem-safe cache key from a namespace and its parts
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "factcheck-v1-" + namespace + "-" + hex.EncodeToString(hash[:16])
}

// New builds the cache described by config, or nil when caching is disabled
func New(config model.CacheConfig) Cache {
	if !config.Enabled {
		return nil
	}
	return NewLayeredCache(
		NewMemoryCache(config.MemoryTTL, 10*time.Minute),
		NewDiskCache(config.Dir, config.DiskTTL),
		config.MemoryTTL,
	)
}

func recordLookup(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(layer, result).Inc()
}
