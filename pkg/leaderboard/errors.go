package leaderboard

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the primary source and every
	// fallback source have been exhausted without a valid payload
	ErrUpstreamUnavailable = errors.New("all leaderboard sources exhausted")
	// ErrMalformedPayload is returned when an upstream response is structurally
	// invalid or carries a non-numeric value in a numeric field
	ErrMalformedPayload = errors.New("malformed leaderboard payload")
	// ErrNotFound is returned when a requested snapshot or window has no data.
	// It is a normal outcome, distinct from storage failures
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidRequest is returned for unsupported windows or out-of-range
	// pagination, before any store or network access
	ErrInvalidRequest = errors.New("invalid request")
)
