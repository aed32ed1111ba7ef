package tone

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-ctt/pkg/audioio"
)

// Player connects a Generator to an audio sink and follows trial start/stop.
// An output failure disables the tone; the trial carries on silently.
type Player struct {
	gen    *Generator
	sink   audioio.Sink
	logger *slog.Logger

	enabled atomic.Bool

	mu      sync.Mutex
	playing bool
}

// NewPlayer creates a player. A nil sink behaves like a disabled tone.
func NewPlayer(gen *Generator, sink audioio.Sink, enabled bool, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Player{
		gen:    gen,
		sink:   sink,
		logger: logger.With("component", "tone"),
	}
	p.enabled.Store(enabled && sink != nil)
	return p
}

// Generator returns the underlying synthesizer.
func (p *Player) Generator() *Generator { return p.gen }

// Enabled reports whether the tone is audible during trials.
func (p *Player) Enabled() bool { return p.enabled.Load() }

// SetEnabled switches the tone on or off. Turning it off mid-trial silences
// output immediately; turning it on takes effect at the next Start.
func (p *Player) SetEnabled(on bool) {
	if on && p.sink == nil {
		return
	}
	p.enabled.Store(on)
	if !on {
		p.Stop()
	}
}

// Start resets the generator to silence and begins playback.
func (p *Player) Start() {
	p.gen.SetPitchFactor(0)
	p.gen.Reset()

	if !p.enabled.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return
	}
	if err := p.sink.Start(context.Background(), p.gen); err != nil {
		p.logger.Warn("audio output unavailable, disabling tone",
			"backend", p.sink.Name(),
			"error", err,
		)
		p.enabled.Store(false)
		return
	}
	p.playing = true
}

// Stop halts playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	if err := p.sink.Stop(); err != nil {
		p.logger.Warn("failed to stop audio output", "error", err)
	}
	p.playing = false
}

// SetPitchFactor forwards the current error to the generator.
func (p *Player) SetPitchFactor(factor float64) {
	p.gen.SetPitchFactor(factor)
}

// Playing reports whether audio is being produced.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Close stops playback and releases the sink.
func (p *Player) Close() error {
	p.Stop()
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}
