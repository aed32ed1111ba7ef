// Package session keeps the data log of every trial, summarizes trials and
// persists them as tab-separated text files and, optionally, SQLite.
package session

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when the session configuration is unusable.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config holds session logging settings.
type Config struct {
	// Dir receives the ctt-<time>.txt data files.
	// Default: "." (working directory)
	Dir string `yaml:"dir" json:"dir"`

	// SaveOnExit writes the data file when the application stops.
	// Default: true
	SaveOnExit bool `yaml:"save_on_exit" json:"save_on_exit"`

	// Database is the SQLite file for trial history. Empty disables it.
	Database string `yaml:"database" json:"database"`
}

// DefaultConfig returns the default session settings.
func DefaultConfig() Config {
	return Config{
		Dir:        ".",
		SaveOnExit: true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SaveOnExit && c.Dir == "" {
		return fmt.Errorf("%w: dir is required when save_on_exit is set", ErrInvalidConfig)
	}
	return nil
}
