package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 4 << 20

// Source is one upstream transport for a leaderboard window.
type Source interface {
	// Name identifies the source in logs and metrics
	Name() string
	// Fetch performs a single attempt; the context carries the per-attempt timeout
	Fetch(ctx context.Context, window leaderboard.Window) (*leaderboard.Payload, error)
}

// directSource is the primary endpoint: window as a query parameter plus an
// API key header.
type directSource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func (s *directSource) Name() string { return "direct" }

func (s *directSource) Fetch(ctx context.Context, window leaderboard.Window) (*leaderboard.Payload, error) {
	u := fmt.Sprintf("%s?duration=%s", s.baseURL, url.QueryEscape(window.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	return doFetch(s.httpClient, req, false)
}

// windowPathSource is a custom fallback endpoint keyed by window in the path.
type windowPathSource struct {
	httpClient *http.Client
	baseURL    string
}

func (s *windowPathSource) Name() string { return "windowPath" }

func (s *windowPathSource) Fetch(ctx context.Context, window leaderboard.Window) (*leaderboard.Payload, error) {
	u := fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(window.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	return doFetch(s.httpClient, req, false)
}

// proxySource is a generic passthrough proxy: the direct URL is URL-encoded
// into the proxy query and the payload arrives wrapped in a contents envelope.
type proxySource struct {
	httpClient *http.Client
	proxyURL   string
	targetURL  string
}

func (s *proxySource) Name() string { return "proxy" }

func (s *proxySource) Fetch(ctx context.Context, window leaderboard.Window) (*leaderboard.Payload, error) {
	target := fmt.Sprintf("%s?duration=%s", s.targetURL, url.QueryEscape(window.String()))
	u := fmt.Sprintf("%s?url=%s", s.proxyURL, url.QueryEscape(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	return doFetch(s.httpClient, req, true)
}

// doFetch executes a request and decodes the payload, unwrapping the proxy
// envelope when asked.
func doFetch(client *http.Client, req *http.Request, enveloped bool) (*leaderboard.Payload, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if enveloped {
		body, err = unwrapEnvelope(body)
		if err != nil {
			return nil, err
		}
	}

	return leaderboard.DecodePayload(body)
}

// envelope is the wrapper some passthrough proxies put around the real body.
type envelope struct {
	Contents string `json:"contents"`
}

func unwrapEnvelope(body []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", leaderboard.ErrMalformedPayload, err)
	}
	if env.Contents == "" {
		return nil, fmt.Errorf("%w: empty envelope contents", leaderboard.ErrMalformedPayload)
	}
	return []byte(env.Contents), nil
}
