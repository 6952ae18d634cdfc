package ats

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atscore/internal/types"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, CacheKey("backend engineer"), CacheKey("backend engineer"))
	})

	t.Run("only prefix matters", func(t *testing.T) {
		prefix := strings.Repeat("a", cacheKeyPrefixLen)
		assert.Equal(t, CacheKey(prefix+"tail one"), CacheKey(prefix+"different tail"))
	})

	t.Run("different descriptions differ", func(t *testing.T) {
		assert.NotEqual(t, CacheKey("backend engineer"), CacheKey("frontend engineer"))
	})
}

func TestMemoryCacheTTL(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cache := NewMemoryCacheWithClock(5*time.Minute, clock)

	value := types.ExtractedKeywords{Keywords: []string{"Go"}}
	cache.Set("key", value)

	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, value, got)

	// Just inside the TTL.
	now = now.Add(5*time.Minute - time.Second)
	_, ok = cache.Get("key")
	assert.True(t, ok)

	// Expired.
	now = now.Add(2 * time.Second)
	_, ok = cache.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCacheMiss(t *testing.T) {
	cache := NewMemoryCache()
	_, ok := cache.Get("absent")
	assert.False(t, ok)
}
