package fetch

import (
	"errors"
	"time"
)

var (
	// ErrBaseURLRequired is returned when the primary source URL is not provided
	ErrBaseURLRequired = errors.New("primary source base URL is required")
	// ErrInvalidCacheTTL is returned when the cache TTL is not positive
	ErrInvalidCacheTTL = errors.New("cache TTL must be positive")
	// ErrInvalidTimeout is returned when the fetch timeout is not positive
	ErrInvalidTimeout = errors.New("fetch timeout must be positive")
)

// Config represents the fetch client configuration
type Config struct {
	// BaseURL is the primary (direct) leaderboard endpoint
	BaseURL string `yaml:"baseUrl"`
	// APIKey is sent to the primary endpoint in the x-api-key header
	APIKey string `yaml:"apiKey"`
	// CacheTTL bounds how long a fetched payload short-circuits the network
	CacheTTL time.Duration `yaml:"cacheTtl" default:"5m"`
	// Timeout bounds each individual source attempt
	Timeout time.Duration `yaml:"timeout" default:"5s"`
	// DiagnosticTimeout bounds slower diagnostic calls
	DiagnosticTimeout time.Duration `yaml:"diagnosticTimeout" default:"15s"`
	// Fallbacks are tried in order after the primary source fails
	Fallbacks []FallbackConfig `yaml:"fallbacks"`
}

// FallbackConfig describes one ordered fallback transport.
type FallbackConfig struct {
	// Kind selects the transport convention: "windowPath" puts the window in
	// the URL path, "proxy" URL-encodes the primary URL behind a passthrough
	// proxy that wraps the payload in a contents envelope.
	Kind string `yaml:"kind"`
	URL  string `yaml:"url"`
}

// Fallback transport kinds.
const (
	FallbackWindowPath = "windowPath"
	FallbackProxy      = "proxy"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLRequired
	}
	if c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
