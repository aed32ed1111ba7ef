package audioio

import (
	"fmt"
	"log/slog"
)

// NewSink creates a new audio sink with the given configuration.
// BackendAuto resolves to device playback.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = BackendOto
	}

	logger.Info("creating audio sink",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"buffer_ms", cfg.BufferDuration.Milliseconds(),
	)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendOto:
		return newOtoSink(cfg, logger)
	case BackendWAV:
		return NewWAVSink(cfg, logger)
	case BackendRTP:
		return NewRTPSink(cfg, logger)
	case BackendNone:
		return NewNullSink(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// AvailableBackends returns the backends compiled into this binary.
func AvailableBackends() []Backend {
	backends := []Backend{BackendMock, BackendWAV, BackendRTP, BackendNone}
	if otoAvailable {
		backends = append([]Backend{BackendOto}, backends...)
	}
	return backends
}
