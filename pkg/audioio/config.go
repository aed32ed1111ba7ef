// Package audioio provides audio output backends for the tone generator.
//
// This package supports multiple backends:
//   - oto - device playback through ebitengine/oto (default)
//   - wav - records the rendered signal to a WAV file
//   - rtp - streams L16 RTP packets over UDP
//   - mock - CI/testing without hardware
//
// Every backend pulls frames from a Renderer on its own goroutine, so the
// synthesizer is decoupled from the simulation tick rate.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects the device backend.
	BackendAuto Backend = "auto"
	// BackendOto plays through the system audio device.
	BackendOto Backend = "oto"
	// BackendWAV writes the signal to a WAV file per trial.
	BackendWAV Backend = "wav"
	// BackendRTP streams the signal as RTP/L16 over UDP.
	BackendRTP Backend = "rtp"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
	// BackendNone disables audio output.
	BackendNone Backend = "none"
)

// Config holds audio output configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto" (device playback)
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	// Default: 44100
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of interleaved channels.
	// Default: 2 (stereo, left/right routing carries the error sign)
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the amount of audio pulled per render call.
	// Default: 50ms (matches the original output latency)
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device is the backend-specific target.
	// Examples:
	//   - wav: output directory for the recordings
	//   - rtp: "host:port" of the receiver
	//   - oto, mock: ignored
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     44100,
		Channels:       2,
		BufferDuration: 50 * time.Millisecond,
		Device:         "",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 2 {
		return fmt.Errorf("channels must be 2 (stereo), got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	if c.Backend == BackendRTP && c.Device == "" {
		return fmt.Errorf("rtp backend requires device \"host:port\"")
	}
	return nil
}

// BufferSize returns the number of frames per buffer.
func (c *Config) BufferSize() int {
	n := int(float64(c.SampleRate) * c.BufferDuration.Seconds())
	if n < 1 {
		n = 1
	}
	return n
}

// BufferSamples returns the number of interleaved samples per buffer.
func (c *Config) BufferSamples() int {
	return c.BufferSize() * c.Channels
}
