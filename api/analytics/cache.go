package analytics

import (
	"fmt"
	"sync"
	"time"
)

// BucketKey maps a moment to its TTL-aligned bucket. All lookups inside one
// bucket share a cache entry; the bucket boundary is the expiry.
func BucketKey(now time.Time, ttl time.Duration) int64 {
	return now.UnixMilli() / ttl.Milliseconds()
}

type cacheEntry struct {
	bucket int64
	result *AnalyticsResult
}

// Cache holds computed analytics per token for the current time bucket.
// Entries from an older bucket are misses. Concurrent writers for the same
// token are last-writer-wins, which is acceptable because entries in the
// same bucket are computed from the same snapshot.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) key(token, exchange string) string {
	return fmt.Sprintf("%s:%s", exchange, token)
}

// Get returns the cached result for the token if it belongs to the current
// bucket.
func (c *Cache) Get(token, exchange string, now time.Time) (*AnalyticsResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[c.key(token, exchange)]
	if !ok || entry.bucket != BucketKey(now, c.ttl) {
		return nil, false
	}
	return entry.result, true
}

// Put stores the result under the current bucket.
func (c *Cache) Put(token, exchange string, result *AnalyticsResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.key(token, exchange)] = cacheEntry{
		bucket: BucketKey(now, c.ttl),
		result: result,
	}
}
