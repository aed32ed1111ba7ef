package input

import (
	"fmt"
	"log/slog"
)

// Open creates the device selected by cfg.
func Open(cfg Config, logger *slog.Logger) (Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("opening input device", "backend", cfg.Backend, "interval", cfg.Interval)

	switch cfg.Backend {
	case BackendMock:
		return NewMockDevice(), nil
	case BackendSerial:
		return OpenSerial(cfg.Serial, logger)
	case BackendNone:
		return centered{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
