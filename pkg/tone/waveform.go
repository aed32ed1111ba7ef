package tone

import (
	"fmt"
	"math"
	"strings"
)

const (
	twoPi  = 2 * math.Pi
	halfPi = math.Pi / 2
)

// Waveform selects the shape of the generated tone.
type Waveform int

const (
	// Sine is a pure sine tone.
	Sine Waveform = iota
	// Triangle is a piecewise-linear triangle tone.
	Triangle
	// HarmonicSeries is a normalized sum of the first five harmonics.
	HarmonicSeries
)

// String returns the configuration name of the waveform.
func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case HarmonicSeries:
		return "harmonics"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

// Valid reports whether w is a known waveform.
func (w Waveform) Valid() bool {
	return w >= Sine && w <= HarmonicSeries
}

// ParseWaveform converts a configuration name into a Waveform.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "":
		return Sine, nil
	case "triangle":
		return Triangle, nil
	case "harmonics", "harmonic", "harmonic_series":
		return HarmonicSeries, nil
	default:
		return Sine, fmt.Errorf("%w: %q", ErrUnknownWaveform, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWaveform, int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config files can name
// the waveform.
func (w *Waveform) UnmarshalText(text []byte) error {
	parsed, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Harmonic is one partial of the HarmonicSeries waveform.
type Harmonic struct {
	Index int
	Gain  float64
	Phase float64
}

// DefaultHarmonics is the fixed partial table of the HarmonicSeries waveform.
var DefaultHarmonics = []Harmonic{
	{Index: 1, Gain: 1, Phase: 0},
	{Index: 2, Gain: 0.61, Phase: math.Pi / 3},
	{Index: 3, Gain: 0.39, Phase: math.Pi / 4},
	{Index: 4, Gain: 0.21, Phase: math.Pi / 7},
	{Index: 5, Gain: 0.11, Phase: math.Pi / 2},
}

// shape evaluates a waveform at phase, which must already be in [0, 2pi).
func shape(w Waveform, phase float64, harmonics []Harmonic, totalGain float64) float64 {
	switch w {
	case Triangle:
		if phase > math.Pi {
			phase = twoPi - phase
		}
		return phase/halfPi - 1
	case HarmonicSeries:
		var sum float64
		for _, h := range harmonics {
			sum += h.Gain * math.Sin(h.Phase+float64(h.Index)*phase)
		}
		return sum / totalGain
	default:
		return math.Sin(phase)
	}
}
