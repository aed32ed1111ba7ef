package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-ctt/pkg/audioio"
	"github.com/teslashibe/go-ctt/pkg/input"
	"github.com/teslashibe/go-ctt/pkg/remote"
	"github.com/teslashibe/go-ctt/pkg/tone"
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}, cfg.Tracking.Lambdas)
	assert.Equal(t, ":8964", cfg.Remote.Addr)
	assert.Equal(t, remote.PolicyReject, cfg.Remote.Policy)
	assert.Equal(t, 20*time.Millisecond, cfg.Input.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_Overlay(t *testing.T) {
	data := []byte(`
tracking:
  lambdas: [1, 2, 4]
  orientation: vertical
  long_proper_tracking_threshold: 30s
tone:
  enabled: true
  waveform: triangle
  pulse_duration_ms: 50
audio:
  backend: wav
  device: /tmp/ctt
remote:
  addr: 127.0.0.1:9000
  policy: replace
session:
  database: ctt.db
`)
	cfg := DefaultConfig()
	require.NoError(t, Parse(data, &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []float64{1, 2, 4}, cfg.Tracking.Lambdas)
	assert.Equal(t, tracking.Vertical, cfg.Tracking.Orientation)
	assert.Equal(t, 30*time.Second, cfg.Tracking.LongProperTrackingThreshold)
	assert.True(t, cfg.Tone.Enabled)
	assert.Equal(t, tone.Triangle, cfg.Tone.Waveform)
	assert.Equal(t, 50, cfg.Tone.PulseDurationMs)
	assert.Equal(t, audioio.BackendWAV, cfg.Audio.Backend)
	assert.Equal(t, remote.PolicyReplace, cfg.Remote.Policy)
	assert.Equal(t, "ctt.db", cfg.Session.Database)

	// Untouched sections keep their defaults.
	assert.Equal(t, 800.0, cfg.Tracking.FieldSize)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Empty(t, cfg.Fallbacks)
}

func TestParse_InvalidLambdasFallBack(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "tracking:\n  lambdas: []\n"},
		{"negative", "tracking:\n  lambdas: [1, -2]\n"},
		{"zero", "tracking:\n  lambdas: [0]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, Parse([]byte(tt.yaml), &cfg))
			assert.Equal(t, tracking.DefaultLambdas, cfg.Tracking.Lambdas)
			assert.Len(t, cfg.Fallbacks, 1)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, Parse([]byte("tracking: [unterminated"), &cfg))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRemoteAddr:   "0.0.0.0:7000",
		EnvWebPort:      "9090",
		EnvLogLevel:     "debug",
		EnvAudioBackend: "MOCK",
		EnvSerialPort:   "/dev/ttyUSB0",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "0.0.0.0:7000", cfg.Remote.Addr)
	assert.Equal(t, "9090", cfg.Web.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, audioio.BackendMock, cfg.Audio.Backend)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Input.Serial.Port)
	assert.Equal(t, input.BackendSerial, cfg.Input.Backend, "serial port implies the serial backend")

	env[EnvInputBackend] = "none"
	cfg = DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, input.BackendNone, cfg.Input.Backend)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("web:\n  port: \"8181\"\n"), 0o644))
	t.Setenv(EnvWebPort, "")
	t.Setenv(EnvRemoteAddr, "127.0.0.1:0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8181", cfg.Web.Port)
	assert.Equal(t, "127.0.0.1:0", cfg.Remote.Addr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Web.Port)
}

func TestLoad_InvalidSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tone:\n  gain: 3\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, tone.ErrInvalidConfig)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracking.Lambdas = []float64{2, 3}
	cfg.Tone.Waveform = tone.HarmonicSeries

	data, err := cfg.Marshal()
	require.NoError(t, err)

	got := DefaultConfig()
	require.NoError(t, Parse(data, &got))
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
