package web

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when the web configuration is unusable.
var ErrInvalidConfig = errors.New("web: invalid config")

// Config holds status server settings.
type Config struct {
	// Enabled starts the status server.
	// Default: true
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Host is the listen address. Control endpoints are unauthenticated, so
	// the server stays on loopback unless configured otherwise.
	// Default: "127.0.0.1"
	Host string `yaml:"host" json:"host"`

	// Port is the HTTP listen port.
	// Default: "8080"
	Port string `yaml:"port" json:"port"`

	// StatusInterval is how often a full status message is pushed to the
	// event feed.
	// Default: 250ms
	StatusInterval time.Duration `yaml:"status_interval" json:"status_interval"`

	// ForwardPositions pushes every per-tick position event to the feed.
	// Default: false (the periodic status carries the position)
	ForwardPositions bool `yaml:"forward_positions" json:"forward_positions"`

	// AllowedOrigins lists browser origins, besides the server's own, that
	// may call the API and open the event feed. Requests from other origins
	// are refused; requests without an Origin header (CLI tools) pass.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`

	// StaticDir serves a dashboard from disk when set.
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

// DefaultConfig returns the default web settings.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Host:           "127.0.0.1",
		Port:           "8080",
		StatusInterval: 250 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidConfig)
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return fmt.Errorf("%w: allowed_origins must list explicit origins", ErrInvalidConfig)
		}
	}
	if c.StatusInterval <= 0 {
		return fmt.Errorf("%w: status_interval must be positive", ErrInvalidConfig)
	}
	return nil
}
