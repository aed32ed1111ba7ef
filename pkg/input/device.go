package input

import (
	"math"
	"sync/atomic"

	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// Device holds the most recent normalized position of an input device.
type Device interface {
	// Latest returns the current position, both axes in [-1, 1].
	Latest() tracking.Sample

	// Name returns the backend name.
	Name() string

	Close() error
}

// position is a lock-free latest-value cell.
type position struct {
	x, y atomic.Uint64
}

func (p *position) store(s tracking.Sample) {
	p.x.Store(math.Float64bits(clampAxis(s.X)))
	p.y.Store(math.Float64bits(clampAxis(s.Y)))
}

func (p *position) load() tracking.Sample {
	return tracking.Sample{
		X: math.Float64frombits(p.x.Load()),
		Y: math.Float64frombits(p.y.Load()),
	}
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// MockDevice is a settable device for tests and demos.
type MockDevice struct {
	pos position
}

// NewMockDevice creates a centered mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// Set moves the device. Values are clamped to [-1, 1].
func (m *MockDevice) Set(x, y float64) {
	m.pos.store(tracking.Sample{X: x, Y: y})
}

// Latest returns the current position.
func (m *MockDevice) Latest() tracking.Sample { return m.pos.load() }

// Name returns "mock".
func (m *MockDevice) Name() string { return string(BackendMock) }

// Close does nothing.
func (m *MockDevice) Close() error { return nil }

// centered is the "none" backend.
type centered struct{}

func (centered) Latest() tracking.Sample { return tracking.Sample{} }
func (centered) Name() string            { return string(BackendNone) }
func (centered) Close() error            { return nil }
