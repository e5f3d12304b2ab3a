package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
	"github.com/yaplytics/mindshare/pkg/observability"
)

// Client resolves "get current leaderboard for window W" requests. It
// consults the ephemeral cache first, then the primary source, then each
// fallback in order, each attempt under its own timeout.
type Client struct {
	log     logrus.FieldLogger
	cfg     *Config
	cache   *Cache
	sources []Source
}

// NewClient creates a fetch client. The cache is injected so the same
// instance can be invalidated by the coordinator after a successful
// write-through collection.
func NewClient(log logrus.FieldLogger, cfg *Config, cache *Cache) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{}

	sources := make([]Source, 0, 1+len(cfg.Fallbacks))
	sources = append(sources, &directSource{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	})
	for _, fb := range cfg.Fallbacks {
		switch fb.Kind {
		case FallbackWindowPath:
			sources = append(sources, &windowPathSource{httpClient: httpClient, baseURL: fb.URL})
		case FallbackProxy:
			sources = append(sources, &proxySource{httpClient: httpClient, proxyURL: fb.URL, targetURL: cfg.BaseURL})
		default:
			return nil, fmt.Errorf("unknown fallback kind %q", fb.Kind)
		}
	}

	return &Client{
		log:     log.WithField("service", "fetch"),
		cfg:     cfg,
		cache:   cache,
		sources: sources,
	}, nil
}

// outcome is the single-assignment result of the fetch path. Exactly one
// source attempt may populate it; an abandoned timed-out attempt can never
// write into the cache after a later source has already won.
type outcome struct {
	payload *leaderboard.Payload
	source  string
}

// Acquire returns the leaderboard payload for a window and whether it came
// from a live fetch. A cache hit younger than the TTL short-circuits without
// network access and reports isLive=false. When every source fails the call
// returns ErrUpstreamUnavailable; stale data is never substituted.
func (c *Client) Acquire(ctx context.Context, window leaderboard.Window) (*leaderboard.Payload, bool, error) {
	if !window.Valid() {
		return nil, false, fmt.Errorf("%w: unsupported window %q", leaderboard.ErrInvalidRequest, window)
	}

	if payload, ok := c.cache.Get(window); ok {
		observability.RecordCacheRequest("hit")
		c.log.WithField("window", window).Debug("Cache hit")
		return payload, false, nil
	}
	observability.RecordCacheRequest("miss")

	var (
		won      outcome
		attempts []error
	)
	for _, source := range c.sources {
		payload, err := c.attempt(ctx, source, window)
		if err != nil {
			observability.RecordFetchAttempt(source.Name(), "failed")
			c.log.WithError(err).WithFields(logrus.Fields{
				"source": source.Name(),
				"window": window,
			}).Warn("Source attempt failed")
			attempts = append(attempts, fmt.Errorf("%s: %w", source.Name(), err))

			continue
		}

		observability.RecordFetchAttempt(source.Name(), "success")
		won = outcome{payload: payload, source: source.Name()}

		break
	}

	if won.payload == nil {
		return nil, false, fmt.Errorf("%w: %w", leaderboard.ErrUpstreamUnavailable, errors.Join(attempts...))
	}

	c.cache.Put(window, won.payload)
	c.log.WithFields(logrus.Fields{
		"source":          won.source,
		"window":          window,
		"failed_attempts": len(attempts),
	}).Info("Fetched leaderboard")

	return won.payload, true, nil
}

// attempt runs a single source fetch under its own timeout.
func (c *Client) attempt(ctx context.Context, source Source, window leaderboard.Window) (*leaderboard.Payload, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return source.Fetch(attemptCtx, window)
}

// Invalidate clears the ephemeral cache.
func (c *Client) Invalidate() {
	c.cache.Invalidate()
	c.log.Debug("Cache invalidated")
}

// Diagnose probes the primary source under the longer diagnostic timeout and
// returns the round-trip duration.
func (c *Client) Diagnose(ctx context.Context, window leaderboard.Window) (time.Duration, error) {
	diagCtx, cancel := context.WithTimeout(ctx, c.cfg.DiagnosticTimeout)
	defer cancel()

	start := time.Now()
	if _, err := c.sources[0].Fetch(diagCtx, window); err != nil {
		return 0, err
	}

	return time.Since(start), nil
}
