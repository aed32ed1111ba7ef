package tracking

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Orientation selects which input axis drives the marker.
type Orientation string

const (
	// Horizontal uses the x axis of the input sample.
	Horizontal Orientation = "horizontal"
	// Vertical uses the y axis of the input sample.
	Vertical Orientation = "vertical"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// Flip returns the other orientation.
func (o Orientation) Flip() Orientation {
	if o == Horizontal {
		return Vertical
	}
	return Horizontal
}

// ParseOrientation converts a configuration name into an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	o := Orientation(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrientation, s)
	}
	return o, nil
}

const (
	// LegacyFarThresholdScale reproduces the threshold of older releases,
	// which compared the offset against a scaled pixel threshold.
	LegacyFarThresholdScale = 0.23

	// BoundaryOffset is the |offset| at which the operator has lost control.
	BoundaryOffset = 0.99
)

// DefaultLambdas is the standard difficulty list.
var DefaultLambdas = []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}

// Config holds all tunable parameters of the tracking task
type Config struct {
	// Difficulty
	Lambdas []float64 `yaml:"lambdas" json:"lambdas"` // Ordered difficulty coefficients

	// Field
	FieldSize   float64     `yaml:"field_size" json:"field_size"`   // Visual field size in pixels
	Orientation Orientation `yaml:"orientation" json:"orientation"` // Input axis

	// Distance category
	FarThreshold       float64 `yaml:"far_threshold" json:"far_threshold"`               // Pixels from center
	LegacyFarThreshold bool    `yaml:"legacy_far_threshold" json:"legacy_far_threshold"` // Scale the threshold by 0.23

	// Dynamics
	OffsetGain float64 `yaml:"offset_gain" json:"offset_gain"` // Positive feedback (instability)
	InputGain  float64 `yaml:"input_gain" json:"input_gain"`   // Operator authority
	NoiseGain  float64 `yaml:"noise_gain" json:"noise_gain"`   // Disturbance
	NoiseStep  float64 `yaml:"noise_step" json:"noise_step"`   // Noise phase step per tick (rad)

	// Dwell
	LongProperTrackingThreshold time.Duration `yaml:"long_proper_tracking_threshold" json:"long_proper_tracking_threshold"`

	// Appearance, forwarded to the display
	LineColor    string  `yaml:"line_color" json:"line_color"`
	FarLineColor string  `yaml:"far_line_color" json:"far_line_color"`
	LineWidth    float64 `yaml:"line_width" json:"line_width"`
	FarLineWidth float64 `yaml:"far_line_width" json:"far_line_width"`
}

// DefaultConfig returns the standard task configuration.
// The gains are normalized for an 800 px field.
func DefaultConfig() Config {
	return Config{
		Lambdas: append([]float64(nil), DefaultLambdas...),

		FieldSize:   800,
		Orientation: Horizontal,

		FarThreshold:       100,
		LegacyFarThreshold: false,

		OffsetGain: 8,    // 0.1 px/px at 0.2 speed, times the 400 px half field
		InputGain:  10,   // 50 px at 0.2 speed
		NoiseGain:  0.12, // 0.6 at 0.2 speed
		NoiseStep:  0.08,

		LongProperTrackingThreshold: 60 * time.Second,

		LineColor:    "#000000",
		FarLineColor: "#ff0000",
		LineWidth:    3,
		FarLineWidth: 15,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Lambdas) == 0 {
		return fmt.Errorf("%w: lambdas must not be empty", ErrInvalidConfig)
	}
	for i, l := range c.Lambdas {
		if !(l > 0) || math.IsInf(l, 0) {
			return fmt.Errorf("%w: lambda[%d] must be positive and finite, got %v", ErrInvalidConfig, i, l)
		}
	}
	if c.FieldSize <= 0 {
		return fmt.Errorf("%w: field_size must be positive, got %v", ErrInvalidConfig, c.FieldSize)
	}
	if !c.Orientation.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, c.Orientation)
	}
	gains := []struct {
		name string
		v    float64
	}{{"offset_gain", c.OffsetGain}, {"input_gain", c.InputGain}, {"noise_gain", c.NoiseGain}}
	for _, g := range gains {
		if math.IsNaN(g.v) || math.IsInf(g.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfig, g.name, g.v)
		}
	}
	if c.FarThreshold < 0 {
		return fmt.Errorf("%w: far_threshold must not be negative, got %v", ErrInvalidConfig, c.FarThreshold)
	}
	if c.NoiseStep < 0 {
		return fmt.Errorf("%w: noise_step must not be negative, got %v", ErrInvalidConfig, c.NoiseStep)
	}
	if c.LongProperTrackingThreshold <= 0 {
		return fmt.Errorf("%w: long_proper_tracking_threshold must be positive, got %v", ErrInvalidConfig, c.LongProperTrackingThreshold)
	}
	return nil
}

// HalfExtent returns the reference half extent in pixels.
func (c *Config) HalfExtent() float64 {
	return c.FieldSize / 2
}

// EffectiveFarThreshold returns the pixel threshold actually compared.
func (c *Config) EffectiveFarThreshold() float64 {
	if c.LegacyFarThreshold {
		return c.FarThreshold * LegacyFarThresholdScale
	}
	return c.FarThreshold
}

func (c Config) clone() Config {
	c.Lambdas = append([]float64(nil), c.Lambdas...)
	return c
}
