// Package input turns an analog input device into the fixed-rate sample
// stream consumed by the tracking engine.
//
// A Device keeps the most recent normalized position; a Sampler reads it
// every Interval (20ms by default) regardless of how fast the device reports.
package input

import (
	"errors"
	"fmt"
	"time"
)

// Backend selects the input device.
type Backend string

const (
	// BackendMock uses a settable in-memory position (tests, demos).
	BackendMock Backend = "mock"
	// BackendSerial reads "x,y" lines from a serial port.
	BackendSerial Backend = "serial"
	// BackendNone produces a centered input.
	BackendNone Backend = "none"
)

// ErrInvalidConfig is returned when the input configuration is unusable.
var ErrInvalidConfig = errors.New("input: invalid config")

// SerialConfig holds serial port settings.
type SerialConfig struct {
	Port     string `yaml:"port" json:"port"`
	BaudRate int    `yaml:"baud_rate" json:"baud_rate"`
}

// Config holds input settings.
type Config struct {
	// Backend selects the device.
	// Default: "mock"
	Backend Backend `yaml:"backend" json:"backend"`

	// Interval is the control tick period.
	// Default: 20ms
	Interval time.Duration `yaml:"interval" json:"interval"`

	// Serial configures BackendSerial.
	Serial SerialConfig `yaml:"serial" json:"serial"`
}

// DefaultConfig returns the default input settings.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendMock,
		Interval: 20 * time.Millisecond,
		Serial: SerialConfig{
			BaudRate: 115200,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidConfig, c.Interval)
	}
	switch c.Backend {
	case BackendMock, BackendNone:
	case BackendSerial:
		if c.Serial.Port == "" {
			return fmt.Errorf("%w: serial backend requires a port", ErrInvalidConfig)
		}
		if c.Serial.BaudRate <= 0 {
			return fmt.Errorf("%w: baud_rate must be positive, got %d", ErrInvalidConfig, c.Serial.BaudRate)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	return nil
}
