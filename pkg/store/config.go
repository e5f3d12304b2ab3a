package store

import "errors"

// ErrPathRequired is returned when the database file path is not provided
var ErrPathRequired = errors.New("database path is required")

// Config represents the snapshot store configuration
type Config struct {
	// Path is the SQLite database file location
	Path string `yaml:"path" default:"mindshare.db"`
	// Timezone fixes the calendar used for collection dates and pruning
	Timezone string `yaml:"timezone" default:"UTC"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrPathRequired
	}

	return nil
}
