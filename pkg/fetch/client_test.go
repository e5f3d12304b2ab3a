package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

const upstreamBody = `{
	"totalYappers": 100,
	"totalTweets": 500,
	"topImpressions": 10000,
	"topLikes": 2000,
	"leaderboard": [
		{"username": "alice", "mindshare": 0.42, "tweet_counts": 12, "impressions_count": 3400, "likes_count": 210},
		{"username": "bob", "mindshare": 0.31, "tweet_counts": 9, "impressions_count": 2800, "likes_count": 150},
		{"username": "carol", "mindshare": 0.27, "tweet_counts": 7, "impressions_count": 1900, "likes_count": 90}
	]
}`

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestClient(t *testing.T, cfg *Config) (*Client, *Cache) {
	t.Helper()
	cache := NewCache(cfg.CacheTTL)
	client, err := NewClient(testLogger(), cfg, cache)
	require.NoError(t, err)
	return client, cache
}

func TestAcquireCachesWithinTTL(t *testing.T) {
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "7d", r.URL.Query().Get("duration"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(upstreamBody))
	}))
	defer upstream.Close()

	client, _ := newTestClient(t, &Config{
		BaseURL:  upstream.URL,
		APIKey:   "secret",
		CacheTTL: 5 * time.Minute,
		Timeout:  5 * time.Second,
	})

	payload, isLive, err := client.Acquire(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	assert.True(t, isLive)
	require.NotNil(t, payload)

	// Second call within the TTL must not touch the network
	cached, isLive, err := client.Acquire(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	assert.False(t, isLive)
	assert.Same(t, payload, cached)
	assert.Equal(t, int64(1), hits.Load())
}

func TestAcquireFallbackOrdering(t *testing.T) {
	// Primary times out
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(upstreamBody))
	}))
	defer primary.Close()

	// First fallback returns 503
	var fallbackHits atomic.Int64
	badFallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fallbackHits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer badFallback.Close()

	// Second fallback is a passthrough proxy wrapping the payload
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("url"), "duration=7d")
		_ = json.NewEncoder(w).Encode(map[string]string{"contents": upstreamBody})
	}))
	defer proxy.Close()

	client, _ := newTestClient(t, &Config{
		BaseURL:  primary.URL,
		CacheTTL: 5 * time.Minute,
		Timeout:  50 * time.Millisecond,
		Fallbacks: []FallbackConfig{
			{Kind: FallbackWindowPath, URL: badFallback.URL},
			{Kind: FallbackProxy, URL: proxy.URL},
		},
	})

	payload, isLive, err := client.Acquire(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	assert.True(t, isLive, "fallback data is still live")
	require.NotNil(t, payload)
	assert.Len(t, payload.Leaderboard, 3)
	assert.Equal(t, int64(1), fallbackHits.Load(), "exactly one failed fallback attempt before the proxy won")

	// The fallback result must be cached like a primary result
	cached, isLive, err := client.Acquire(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	assert.False(t, isLive)
	assert.Same(t, payload, cached)
}

func TestAcquireAllSourcesExhausted(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	client, cache := newTestClient(t, &Config{
		BaseURL:  down.URL,
		CacheTTL: 5 * time.Minute,
		Timeout:  time.Second,
		Fallbacks: []FallbackConfig{
			{Kind: FallbackWindowPath, URL: down.URL},
		},
	})

	_, _, err := client.Acquire(context.Background(), leaderboard.Window30D)
	require.Error(t, err)
	assert.ErrorIs(t, err, leaderboard.ErrUpstreamUnavailable)
	assert.Zero(t, cache.Len(), "no partial or stale data is cached on failure")
}

func TestAcquireRejectsUnsupportedWindow(t *testing.T) {
	client, _ := newTestClient(t, &Config{
		BaseURL:  "http://localhost:0",
		CacheTTL: 5 * time.Minute,
		Timeout:  time.Second,
	})

	_, _, err := client.Acquire(context.Background(), leaderboard.Window("90d"))
	assert.ErrorIs(t, err, leaderboard.ErrInvalidRequest)
}

func TestAcquireStructurallyInvalidFallsThrough(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>down for maintenance</html>"))
	}))
	defer garbage.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upstreamBody))
	}))
	defer good.Close()

	client, _ := newTestClient(t, &Config{
		BaseURL:  garbage.URL,
		CacheTTL: 5 * time.Minute,
		Timeout:  time.Second,
		Fallbacks: []FallbackConfig{
			{Kind: FallbackWindowPath, URL: good.URL},
		},
	})

	payload, isLive, err := client.Acquire(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	assert.True(t, isLive)
	assert.Len(t, payload.Leaderboard, 3)
}

func TestInvalidate(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upstreamBody))
	}))
	defer upstream.Close()

	client, cache := newTestClient(t, &Config{
		BaseURL:  upstream.URL,
		CacheTTL: 5 * time.Minute,
		Timeout:  time.Second,
	})

	_, _, err := client.Acquire(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	client.Invalidate()
	assert.Zero(t, cache.Len())
}

func TestDiagnose(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upstreamBody))
	}))
	defer upstream.Close()

	client, cache := newTestClient(t, &Config{
		BaseURL:           upstream.URL,
		CacheTTL:          5 * time.Minute,
		Timeout:           time.Second,
		DiagnosticTimeout: 5 * time.Second,
	})

	elapsed, err := client.Diagnose(context.Background(), leaderboard.Window7D)
	require.NoError(t, err)
	assert.Greater(t, elapsed, time.Duration(0))
	assert.Zero(t, cache.Len(), "a probe never populates the cache")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"missing base URL", Config{CacheTTL: time.Minute, Timeout: time.Second}, ErrBaseURLRequired},
		{"zero TTL", Config{BaseURL: "http://u", Timeout: time.Second}, ErrInvalidCacheTTL},
		{"zero timeout", Config{BaseURL: "http://u", CacheTTL: time.Minute}, ErrInvalidTimeout},
		{"valid", Config{BaseURL: "http://u", CacheTTL: time.Minute, Timeout: time.Second}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
