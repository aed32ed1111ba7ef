package audioio

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrBackendUnavailable is returned when a backend is not compiled in or
	// has no usable device.
	ErrBackendUnavailable = errors.New("audioio: backend unavailable")

	// ErrClosed is returned when using a sink after Close.
	ErrClosed = errors.New("audioio: sink closed")
)

// Renderer produces interleaved float samples on demand.
// Render fills buf and returns the number of samples written.
type Renderer interface {
	Render(buf []float32) int
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(buf []float32) int

// Render calls f(buf).
func (f RendererFunc) Render(buf []float32) int { return f(buf) }

// Sink plays audio pulled from a Renderer.
type Sink interface {
	// Start begins pulling frames from r.
	// Starting a running sink replaces its renderer.
	Start(ctx context.Context, r Renderer) error

	// Stop halts output. It is safe to call Stop multiple times.
	Stop() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "oto", "wav", "mock").
	Name() string

	// Close releases all resources.
	// After Close, the sink cannot be restarted.
	io.Closer
}

// SinkStats contains statistics about an audio sink.
type SinkStats struct {
	// BuffersRendered is the total number of render calls.
	BuffersRendered int64 `json:"buffers_rendered"`

	// SamplesRendered is the total number of samples pulled.
	SamplesRendered int64 `json:"samples_rendered"`

	// Underruns counts render calls that returned fewer samples than requested.
	Underruns int64 `json:"underruns"`

	// Running indicates if the sink is currently playing.
	Running bool `json:"running"`

	// Backend is the name of the audio backend.
	Backend string `json:"backend"`
}

// SinkWithStats extends Sink with statistics.
type SinkWithStats interface {
	Sink
	Stats() SinkStats
}
