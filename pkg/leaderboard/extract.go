package leaderboard

import (
	"fmt"
	"net/url"
)

// profileBaseURL is the base for derived participant profile links.
const profileBaseURL = "https://x.com/"

// ExtractMetrics derives the summary metrics from a raw payload. It is
// deterministic and side-effect free. Any malformed numeric field fails the
// whole extraction.
func ExtractMetrics(p *Payload) (Metrics, error) {
	if p == nil {
		return Metrics{}, fmt.Errorf("%w: nil payload", ErrMalformedPayload)
	}

	var (
		m   Metrics
		err error
	)
	if m.TotalYappers, err = coerceUint("totalYappers", p.TotalYappers); err != nil {
		return Metrics{}, err
	}
	if m.TotalTweets, err = coerceUint("totalTweets", p.TotalTweets); err != nil {
		return Metrics{}, err
	}
	if m.TopImpressions, err = coerceUint("topImpressions", p.TopImpressions); err != nil {
		return Metrics{}, err
	}
	if m.TopLikes, err = coerceUint("topLikes", p.TopLikes); err != nil {
		return Metrics{}, err
	}

	return m, nil
}

// ExtractEntries derives the ordered ranked entries from a raw payload.
// An absent ranked list is treated as empty. Ranks are assigned from the
// payload order, 1-based and contiguous across the requested page.
func ExtractEntries(p *Payload, limit, offset int) ([]Entry, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrMalformedPayload)
	}
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: negative pagination bounds", ErrInvalidRequest)
	}

	raw := p.Leaderboard
	if offset >= len(raw) {
		return []Entry{}, nil
	}
	raw = raw[offset:]
	if limit > 0 && limit < len(raw) {
		raw = raw[:limit]
	}

	entries := make([]Entry, 0, len(raw))
	for i := range raw {
		entry, err := extractEntry(&raw[i], offset+i+1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func extractEntry(raw *PayloadEntry, rank int) (Entry, error) {
	if raw.Username == "" {
		return Entry{}, fmt.Errorf("%w: entry at rank %d has no username", ErrMalformedPayload, rank)
	}

	entry := Entry{
		Rank:       rank,
		Username:   raw.Username,
		ProfileURL: ProfileURL(raw.Username),
	}

	var err error
	if entry.Mindshare, err = coerceFloat("mindshare", raw.Mindshare); err != nil {
		return Entry{}, err
	}
	if entry.Mindshare < 0 || entry.Mindshare > 1 {
		return Entry{}, fmt.Errorf("%w: mindshare %v outside [0,1]", ErrMalformedPayload, entry.Mindshare)
	}
	if entry.TweetCount, err = coerceUint("tweet_counts", raw.TweetCounts); err != nil {
		return Entry{}, err
	}
	if entry.ImpressionCount, err = coerceUint("impressions_count", raw.ImpressionCount); err != nil {
		return Entry{}, err
	}
	if entry.LikeCount, err = coerceUint("likes_count", raw.LikeCount); err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// ProfileURL derives the profile reference URL for a participant handle.
func ProfileURL(username string) string {
	return profileBaseURL + url.PathEscape(username)
}
