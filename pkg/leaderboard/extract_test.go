package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"totalYappers": 100,
	"totalTweets": "500",
	"topImpressions": 10000,
	"topLikes": 2000,
	"leaderboard": [
		{"username": "alice", "mindshare": 0.42, "tweet_counts": "12", "impressions_count": 3400, "likes_count": "210"},
		{"username": "bob", "mindshare": "0.31", "tweet_counts": 9, "impressions_count": "2800", "likes_count": 150},
		{"username": "carol", "mindshare": 0.27, "tweet_counts": 7, "impressions_count": 1900, "likes_count": 90}
	]
}`

func TestExtractMetrics(t *testing.T) {
	t.Run("coerces numeric strings", func(t *testing.T) {
		p, err := DecodePayload([]byte(samplePayload))
		require.NoError(t, err)

		m, err := ExtractMetrics(p)
		require.NoError(t, err)
		assert.Equal(t, Metrics{
			TotalYappers:   100,
			TotalTweets:    500,
			TopImpressions: 10000,
			TopLikes:       2000,
		}, m)
	})

	t.Run("absent fields coerce to zero", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"totalYappers": 5}`))
		require.NoError(t, err)

		m, err := ExtractMetrics(p)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), m.TotalYappers)
		assert.Zero(t, m.TotalTweets)
		assert.Zero(t, m.TopImpressions)
	})

	t.Run("non-numeric field fails the whole extraction", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"totalYappers": 10, "totalTweets": "many"}`))
		require.NoError(t, err)

		_, err = ExtractMetrics(p)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("negative count fails", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"topLikes": -3}`))
		require.NoError(t, err)

		_, err = ExtractMetrics(p)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestExtractEntries(t *testing.T) {
	p, err := DecodePayload([]byte(samplePayload))
	require.NoError(t, err)

	t.Run("returns ordered contiguous ranks", func(t *testing.T) {
		entries, err := ExtractEntries(p, 250, 0)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		for i, entry := range entries {
			assert.Equal(t, i+1, entry.Rank)
		}
		assert.Equal(t, "alice", entries[0].Username)
		assert.Equal(t, uint64(12), entries[0].TweetCount)
		assert.InDelta(t, 0.31, entries[1].Mindshare, 1e-9)
		assert.Equal(t, uint64(2800), entries[1].ImpressionCount)
	})

	t.Run("applies limit and offset", func(t *testing.T) {
		entries, err := ExtractEntries(p, 1, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "bob", entries[0].Username)
		assert.Equal(t, 2, entries[0].Rank)
	})

	t.Run("offset past the end is empty", func(t *testing.T) {
		entries, err := ExtractEntries(p, 10, 99)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("absent ranked list is empty", func(t *testing.T) {
		empty, err := DecodePayload([]byte(`{"totalYappers": 1}`))
		require.NoError(t, err)

		entries, err := ExtractEntries(empty, 250, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("malformed numeric field fails", func(t *testing.T) {
		bad, err := DecodePayload([]byte(`{"leaderboard": [{"username": "mallory", "mindshare": "lots"}]}`))
		require.NoError(t, err)

		_, err = ExtractEntries(bad, 250, 0)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("mindshare outside unit interval fails", func(t *testing.T) {
		bad, err := DecodePayload([]byte(`{"leaderboard": [{"username": "mallory", "mindshare": 1.5}]}`))
		require.NoError(t, err)

		_, err = ExtractEntries(bad, 250, 0)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("missing username fails", func(t *testing.T) {
		bad, err := DecodePayload([]byte(`{"leaderboard": [{"mindshare": 0.1}]}`))
		require.NoError(t, err)

		_, err = ExtractEntries(bad, 250, 0)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://x.com/alice", ProfileURL("alice"))
	// Deterministic escaping for unusual handles
	assert.Equal(t, ProfileURL("we ird"), ProfileURL("we ird"))
	assert.NotContains(t, ProfileURL("we ird"), " ")
}

func TestParseWindow(t *testing.T) {
	for _, w := range Windows() {
		parsed, err := ParseWindow(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, parsed)
	}

	_, err := ParseWindow("90d")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, body := range []string{
		"<html>not json</html>",
		"null",
		"  null\n",
		"",
		"   ",
	} {
		_, err := DecodePayload([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedPayload, "body %q", body)
	}
}
