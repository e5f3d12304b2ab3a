package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

func TestCache(t *testing.T) {
	payload, err := leaderboard.DecodePayload([]byte(`{"totalYappers": 1}`))
	require.NoError(t, err)

	t.Run("miss on empty cache", func(t *testing.T) {
		cache := NewCache(5 * time.Minute)
		_, ok := cache.Get(leaderboard.Window7D)
		assert.False(t, ok)
	})

	t.Run("hit within TTL", func(t *testing.T) {
		cache := NewCache(5 * time.Minute)
		cache.Put(leaderboard.Window7D, payload)

		got, ok := cache.Get(leaderboard.Window7D)
		require.True(t, ok)
		assert.Same(t, payload, got)
	})

	t.Run("expires after TTL", func(t *testing.T) {
		cache := NewCache(5 * time.Minute)
		now := time.Now()
		cache.now = func() time.Time { return now }
		cache.Put(leaderboard.Window7D, payload)

		now = now.Add(5*time.Minute + time.Second)
		_, ok := cache.Get(leaderboard.Window7D)
		assert.False(t, ok)
	})

	t.Run("windows are independent keys", func(t *testing.T) {
		cache := NewCache(5 * time.Minute)
		cache.Put(leaderboard.Window7D, payload)

		_, ok := cache.Get(leaderboard.Window30D)
		assert.False(t, ok)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("invalidate clears everything", func(t *testing.T) {
		cache := NewCache(5 * time.Minute)
		cache.Put(leaderboard.Window7D, payload)
		cache.Put(leaderboard.Window30D, payload)
		require.Equal(t, 2, cache.Len())

		cache.Invalidate()

		assert.Zero(t, cache.Len())
		_, ok := cache.Get(leaderboard.Window7D)
		assert.False(t, ok)
	})
}
