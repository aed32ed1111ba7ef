// Package tone renders the operator's control state as an audible signal.
//
// A Generator is a stereo phase-accumulator synthesizer. The sign of its
// frequency routes the tone to the left (negative) or right (positive)
// channel and its magnitude sets the pitch. In pulsed mode the tone is gated
// into short fixed-pitch bursts whose repetition rate grows with the pitch.
package tone

import (
	"fmt"
	"math"
	"strings"
)

const (
	// PulseFrequency is the pitch of the bursts in pulsed mode (Hz).
	PulseFrequency = 200.0

	// MaxPulseInterval is the longest gap between bursts (ms).
	MaxPulseInterval = 3000.0

	// PulseRateK shapes how fast the burst interval shrinks with pitch.
	PulseRateK = 0.005
)

// PitchCurve maps a pitch factor in [-1, 1] to a signed frequency.
type PitchCurve string

const (
	// PitchLinear maps the factor linearly onto [-max, max].
	PitchLinear PitchCurve = "linear"
	// PitchExponential emphasizes large errors: sign(f)*exp(|f|*3.5-2.5)*max/e.
	PitchExponential PitchCurve = "exponential"
)

// Frequency returns the signed frequency for the given factor.
func (c PitchCurve) Frequency(factor, maxFrequency float64) float64 {
	if c == PitchExponential {
		if factor == 0 {
			return 0
		}
		sign := 1.0
		if factor < 0 {
			sign = -1
		}
		return sign * math.Exp(math.Abs(factor)*3.5-2.5) * maxFrequency / math.E
	}
	return factor * maxFrequency
}

// Config holds tone synthesis settings.
type Config struct {
	// Enabled turns the audible feedback on. The simulation runs either way.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// MaxFrequencyHz is the pitch at |factor| = 1.
	MaxFrequencyHz float64 `yaml:"max_frequency_hz" json:"max_frequency_hz"`

	// Waveform is the tone shape: sine, triangle or harmonics.
	Waveform Waveform `yaml:"waveform" json:"waveform"`

	// PulseDurationMs is the burst length. Zero means a continuous tone.
	// Avoid long bursts (>200ms).
	PulseDurationMs int `yaml:"pulse_duration_ms" json:"pulse_duration_ms"`

	// Gain is the output amplitude (0..1).
	Gain float64 `yaml:"gain" json:"gain"`

	// PitchCurve selects the factor to frequency mapping.
	PitchCurve PitchCurve `yaml:"pitch_curve" json:"pitch_curve"`
}

// DefaultConfig returns the standard tone settings.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		MaxFrequencyHz:  1000,
		Waveform:        Sine,
		PulseDurationMs: 0,
		Gain:            1,
		PitchCurve:      PitchLinear,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.Waveform.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWaveform, int(c.Waveform))
	}
	if c.MaxFrequencyHz <= 0 {
		return fmt.Errorf("%w: max_frequency_hz must be positive, got %v", ErrInvalidConfig, c.MaxFrequencyHz)
	}
	if c.PulseDurationMs < 0 {
		return fmt.Errorf("%w: pulse_duration_ms must not be negative, got %d", ErrInvalidConfig, c.PulseDurationMs)
	}
	if c.Gain < 0 || c.Gain > 1 {
		return fmt.Errorf("%w: gain must be in [0, 1], got %v", ErrInvalidConfig, c.Gain)
	}
	switch PitchCurve(strings.ToLower(string(c.PitchCurve))) {
	case PitchLinear, PitchExponential, "":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPitchCurve, c.PitchCurve)
	}
	return nil
}

// PulseInterval returns the gap between bursts (ms) for the given frequency.
// Higher pitch pulses faster, saturating as the error grows.
func PulseInterval(frequencyHz float64) float64 {
	return math.Min(MaxPulseInterval, MaxPulseInterval/math.Exp(PulseRateK*math.Abs(frequencyHz)))
}
