package ats

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"atscore/internal/types"
)

// extractionTTL is how long a cached extraction stays fresh.
const extractionTTL = 5 * time.Minute

// cacheKeyPrefixLen bounds how much of the job description feeds the cache
// key. Descriptions that share their first 500 characters share an entry.
const cacheKeyPrefixLen = 500

// CacheKey derives the extraction cache key for a job description.
func CacheKey(jobDescription string) string {
	prefix := jobDescription
	if len(prefix) > cacheKeyPrefixLen {
		prefix = prefix[:cacheKeyPrefixLen]
	}
	sum := sha256.Sum256([]byte(prefix))
	return hex.EncodeToString(sum[:])
}

// ExtractionCache stores keyword extraction results keyed by job-description
// digest. Get returns only entries still within the TTL. Implementations
// must be safe for concurrent use; the HTTP surface scores in parallel.
type ExtractionCache interface {
	Get(key string) (types.ExtractedKeywords, bool)
	Set(key string, value types.ExtractedKeywords)
}

type cacheEntry struct {
	value    types.ExtractedKeywords
	storedAt time.Time
}

// MemoryCache is the default in-process ExtractionCache. Entries expire
// after the TTL but are not evicted eagerly; the key space is bounded by
// distinct job descriptions seen, so no capacity limit is enforced.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a cache with the default TTL and wall clock.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(extractionTTL, time.Now)
}

// NewMemoryCacheWithClock creates a cache with an injected TTL and clock,
// used by tests to simulate expiry without sleeping.
func NewMemoryCacheWithClock(ttl time.Duration, now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached extraction for key if it is still fresh.
func (c *MemoryCache) Get(key string) (types.ExtractedKeywords, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return types.ExtractedKeywords{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return types.ExtractedKeywords{}, false
	}
	return entry.value, true
}

// Set stores an extraction under key with a fresh timestamp. Last writer
// wins; concurrent misses for the same key may both store equivalent data.
func (c *MemoryCache) Set(key string, value types.ExtractedKeywords) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
