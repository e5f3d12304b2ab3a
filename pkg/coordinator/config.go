package coordinator

import (
	"errors"
	"time"

	"github.com/yaplytics/mindshare/pkg/fetch"
	"github.com/yaplytics/mindshare/pkg/leaderboard"
	"github.com/yaplytics/mindshare/pkg/store"
)

var (
	// ErrInvalidWeekday is returned when the collection weekday is outside 0-6
	ErrInvalidWeekday = errors.New("collection weekday must be between 0 (Sunday) and 6 (Saturday)")
	// ErrInvalidHour is returned when a trigger hour is outside 0-23
	ErrInvalidHour = errors.New("trigger hour must be between 0 and 23")
	// ErrInvalidRetention is returned when the retention window is not positive
	ErrInvalidRetention = errors.New("retention weeks must be positive")
	// ErrNoWindows is returned when no collection windows are configured
	ErrNoWindows = errors.New("at least one collection window is required")
	// ErrInvalidEntryLimit is returned when the per-snapshot entry limit is not positive
	ErrInvalidEntryLimit = errors.New("entry limit must be positive")
)

// Config represents the complete tracker configuration
type Config struct {
	// Core settings
	Logging         string `yaml:"logging" default:"info" validate:"oneof=panic fatal warn info debug trace"`
	MetricsAddr     string `yaml:"metricsAddr" default:":9090"`
	HealthCheckAddr string `yaml:"healthCheckAddr"`

	// Dependencies
	Fetch fetch.Config `yaml:"fetch"`
	Store store.Config `yaml:"store"`

	// Coordinator specific
	Scheduling SchedulingConfig `yaml:"scheduling"`
}

// SchedulingConfig represents trigger cadence configuration. Fire times are
// calendar rules (weekday/hour in a fixed timezone), not intervals.
type SchedulingConfig struct {
	CollectionWeekday int      `yaml:"collectionWeekday" default:"3"` // Wednesday
	CollectionHour    int      `yaml:"collectionHour" default:"10"`
	CleanupHour       int      `yaml:"cleanupHour" default:"2"`
	Timezone          string   `yaml:"timezone" default:"UTC"`
	RetentionWeeks    int      `yaml:"retentionWeeks" default:"12"`
	EntryLimit        int      `yaml:"entryLimit" default:"250"`
	Windows           []string `yaml:"windows" default:"[\"7d\",\"30d\",\"3m\",\"6m\",\"12m\"]"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scheduling.CollectionWeekday < 0 || c.Scheduling.CollectionWeekday > 6 {
		return ErrInvalidWeekday
	}
	if c.Scheduling.CollectionHour < 0 || c.Scheduling.CollectionHour > 23 {
		return ErrInvalidHour
	}
	if c.Scheduling.CleanupHour < 0 || c.Scheduling.CleanupHour > 23 {
		return ErrInvalidHour
	}
	if c.Scheduling.RetentionWeeks <= 0 {
		return ErrInvalidRetention
	}
	if c.Scheduling.EntryLimit <= 0 {
		return ErrInvalidEntryLimit
	}
	if len(c.Scheduling.Windows) == 0 {
		return ErrNoWindows
	}
	if _, err := c.Scheduling.windows(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return err
	}

	if err := c.Fetch.Validate(); err != nil {
		return err
	}

	return c.Store.Validate()
}

// windows parses the configured window strings into typed values.
func (sc *SchedulingConfig) windows() ([]leaderboard.Window, error) {
	windows := make([]leaderboard.Window, 0, len(sc.Windows))
	for _, raw := range sc.Windows {
		w, err := leaderboard.ParseWindow(raw)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	return windows, nil
}
