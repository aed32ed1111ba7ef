package tracking

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("tracking: invalid config")

	// ErrInvalidOrientation is returned for an unknown orientation name.
	ErrInvalidOrientation = errors.New("tracking: invalid orientation")

	// ErrRunning is returned by operations that are only allowed while stopped.
	ErrRunning = errors.New("tracking: trial is running")
)
