package leaderboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Payload is the decoded upstream leaderboard response. Numeric fields are
// kept raw because some transports deliver them as JSON strings; coercion
// happens during extraction so a bad value fails the whole extraction
// instead of silently persisting a zero.
type Payload struct {
	TotalYappers   json.RawMessage `json:"totalYappers"`
	TotalTweets    json.RawMessage `json:"totalTweets"`
	TopImpressions json.RawMessage `json:"topImpressions"`
	TopLikes       json.RawMessage `json:"topLikes"`
	Leaderboard    []PayloadEntry  `json:"leaderboard"`
}

// PayloadEntry is one raw ranked participant in the upstream response.
type PayloadEntry struct {
	Username        string          `json:"username"`
	Mindshare       json.RawMessage `json:"mindshare"`
	TweetCounts     json.RawMessage `json:"tweet_counts"`
	ImpressionCount json.RawMessage `json:"impressions_count"`
	LikeCount       json.RawMessage `json:"likes_count"`
}

// DecodePayload parses a raw upstream response body into a Payload.
// Structural invalidity is reported as ErrMalformedPayload. A literal null
// or empty body is rejected too: decoding it would quietly produce an
// all-zero payload.
func DecodePayload(data []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty response body", ErrMalformedPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	p := &Payload{}
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

// coerceUint converts a raw JSON value to an unsigned integer. Absent or
// null values coerce to zero; numeric-looking strings are accepted; anything
// else fails with ErrMalformedPayload.
func coerceUint(field string, raw json.RawMessage) (uint64, error) {
	s, ok := rawScalar(raw)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %q is not a non-negative integer", ErrMalformedPayload, field, s)
	}
	return v, nil
}

// coerceFloat converts a raw JSON value to a float. Same coercion rules as
// coerceUint.
func coerceFloat(field string, raw json.RawMessage) (float64, error) {
	s, ok := rawScalar(raw)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %q is not a number", ErrMalformedPayload, field, s)
	}
	return v, nil
}

// rawScalar strips quoting from a raw JSON scalar and reports whether a
// value is present at all.
func rawScalar(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed), true
		}
		return s, true
	}
	return string(trimmed), true
}
