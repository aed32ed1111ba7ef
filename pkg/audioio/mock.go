package audioio

import (
	"context"
	"log/slog"
	"sync"
)

// MockSink is a mock audio sink for testing.
// It pulls audio on the configured cadence and optionally keeps a copy.
type MockSink struct {
	*pump

	mu       sync.Mutex
	capture  bool
	captured []float32
}

// MockSinkOption configures a MockSink.
type MockSinkOption func(*MockSink)

// WithCapture makes the mock keep every rendered sample.
func WithCapture() MockSinkOption {
	return func(m *MockSink) {
		m.capture = true
	}
}

// NewMockSink creates a new mock audio sink.
func NewMockSink(cfg Config, logger *slog.Logger, opts ...MockSinkOption) *MockSink {
	m := &MockSink{pump: newPump(cfg, string(BackendMock), logger)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins pulling from r.
func (m *MockSink) Start(ctx context.Context, r Renderer) error {
	return m.start(ctx, r, nil, m.emit, nil)
}

func (m *MockSink) emit(buf []float32) error {
	if !m.capture {
		return nil
	}
	m.mu.Lock()
	m.captured = append(m.captured, buf...)
	m.mu.Unlock()
	return nil
}

// Captured returns a copy of the samples kept so far.
func (m *MockSink) Captured() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, len(m.captured))
	copy(out, m.captured)
	return out
}

// Stop halts the pull loop.
func (m *MockSink) Stop() error {
	m.stop()
	return nil
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSink) Name() string { return string(BackendMock) }

// Close releases resources.
func (m *MockSink) Close() error {
	m.close()
	return nil
}

// Stats returns sink statistics.
func (m *MockSink) Stats() SinkStats { return m.stats() }

// Ensure MockSink implements SinkWithStats.
var _ SinkWithStats = (*MockSink)(nil)

// NullSink discards audio without pulling it.
type NullSink struct {
	cfg Config
}

// NewNullSink creates a sink for the "none" backend.
func NewNullSink(cfg Config) *NullSink { return &NullSink{cfg: cfg} }

func (n *NullSink) Start(context.Context, Renderer) error { return nil }
func (n *NullSink) Stop() error                           { return nil }
func (n *NullSink) Config() Config                        { return n.cfg }
func (n *NullSink) Name() string                          { return string(BackendNone) }
func (n *NullSink) Close() error                          { return nil }

var _ Sink = (*NullSink)(nil)
