package tone

import "errors"

var (
	// ErrUnknownWaveform is returned when a waveform name or value is not supported.
	ErrUnknownWaveform = errors.New("tone: unknown waveform")

	// ErrUnknownPitchCurve is returned for an unsupported pitch curve name.
	ErrUnknownPitchCurve = errors.New("tone: unknown pitch curve")

	// ErrInvalidConfig is returned when a tone configuration fails validation.
	ErrInvalidConfig = errors.New("tone: invalid config")
)
