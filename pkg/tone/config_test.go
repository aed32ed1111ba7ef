package tone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"default", func(*Config) {}, nil},
		{"bad waveform", func(c *Config) { c.Waveform = 7 }, ErrUnknownWaveform},
		{"zero max frequency", func(c *Config) { c.MaxFrequencyHz = 0 }, ErrInvalidConfig},
		{"negative pulse", func(c *Config) { c.PulseDurationMs = -1 }, ErrInvalidConfig},
		{"gain too high", func(c *Config) { c.Gain = 1.5 }, ErrInvalidConfig},
		{"bad curve", func(c *Config) { c.PitchCurve = "cubic" }, ErrUnknownPitchCurve},
		{"curve any case", func(c *Config) { c.PitchCurve = "Exponential" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewGenerator_RejectsBadRate(t *testing.T) {
	_, err := NewGenerator(DefaultConfig(), 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseWaveform(t *testing.T) {
	w, err := ParseWaveform(" Triangle ")
	require.NoError(t, err)
	assert.Equal(t, Triangle, w)

	w, err = ParseWaveform("harmonics")
	require.NoError(t, err)
	assert.Equal(t, HarmonicSeries, w)

	_, err = ParseWaveform("square")
	assert.ErrorIs(t, err, ErrUnknownWaveform)
}

func TestConfigYAML(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte(`
enabled: true
max_frequency_hz: 800
waveform: harmonics
pulse_duration_ms: 40
gain: 0.8
pitch_curve: exponential
`), &cfg)
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, HarmonicSeries, cfg.Waveform)
	assert.Equal(t, 40, cfg.PulseDurationMs)
	assert.Equal(t, PitchExponential, cfg.PitchCurve)
	assert.NoError(t, cfg.Validate())

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "waveform: harmonics")
}
