package remote

import (
	"fmt"
	"strings"
)

// Policy decides what happens when a second client connects.
type Policy string

const (
	// PolicyReject closes the new connection and keeps the active session.
	PolicyReject Policy = "reject"
	// PolicyReplace closes the active session and serves the new client.
	PolicyReplace Policy = "replace"
)

// Config holds remote-control settings.
type Config struct {
	// Enabled starts the listener.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Addr is the TCP listen address.
	// Default: ":8964"
	Addr string `yaml:"addr" json:"addr"`

	// Policy applies to a second concurrent client.
	// Default: "reject"
	Policy Policy `yaml:"policy" json:"policy"`

	// ReadBufferSize bounds a single received chunk.
	// Default: 1024
	ReadBufferSize int `yaml:"read_buffer_size" json:"read_buffer_size"`
}

// DefaultConfig returns the default remote settings.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Addr:           ":8964",
		Policy:         PolicyReject,
		ReadBufferSize: 1024,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	switch Policy(strings.ToLower(string(c.Policy))) {
	case PolicyReject, PolicyReplace:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
	if c.ReadBufferSize < 16 {
		return fmt.Errorf("%w: read_buffer_size must be at least 16, got %d", ErrInvalidConfig, c.ReadBufferSize)
	}
	return nil
}
