package tone

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// Channels is the number of interleaved output channels (left, right).
const Channels = 2

// GateMode is the state of the pulse gate.
type GateMode int32

const (
	// GateContinuous plays the tone without interruption.
	GateContinuous GateMode = iota
	// GateOff is the silent part of a pulse cycle.
	GateOff
	// GateOn is the audible burst of a pulse cycle.
	GateOn
)

func (m GateMode) String() string {
	switch m {
	case GateContinuous:
		return "continuous"
	case GateOff:
		return "off"
	case GateOn:
		return "on"
	default:
		return fmt.Sprintf("gate(%d)", int32(m))
	}
}

// Generator synthesizes interleaved stereo float samples.
//
// SetPitchFactor, Reset and the setters are called from the simulation
// goroutine while Render runs on the audio goroutine. Parameters are
// published through per-field atomics; the gate accumulator and the phases
// belong to Render.
type Generator struct {
	sampleRate float64
	stepMs     float64
	curve      PitchCurve
	maxFreq    float64
	harmonics  []Harmonic
	totalGain  float64

	frequency    atomic.Uint64 // float64 bits, signed Hz
	gain         atomic.Uint64 // float64 bits
	waveform     atomic.Int32
	pulseMs      atomic.Int64
	mode         atomic.Int32
	resetPending atomic.Bool

	renderMu   sync.Mutex
	accMs      float64
	phaseLeft  float64
	phaseRight float64
}

// NewGenerator creates a generator for the given sample rate.
func NewGenerator(cfg Config, sampleRate int) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, sampleRate)
	}

	curve := PitchCurve(strings.ToLower(string(cfg.PitchCurve)))
	if curve == "" {
		curve = PitchLinear
	}

	g := &Generator{
		sampleRate: float64(sampleRate),
		stepMs:     1000 / float64(sampleRate),
		curve:      curve,
		maxFreq:    cfg.MaxFrequencyHz,
		harmonics:  DefaultHarmonics,
	}
	for _, h := range g.harmonics {
		g.totalGain += h.Gain
	}

	g.gain.Store(math.Float64bits(cfg.Gain))
	g.waveform.Store(int32(cfg.Waveform))
	g.pulseMs.Store(int64(cfg.PulseDurationMs))
	g.Reset()

	return g, nil
}

// SampleRate returns the output sample rate in Hz.
func (g *Generator) SampleRate() int {
	return int(g.sampleRate)
}

// SetPitchFactor sets the signed frequency from a factor in [-1, 1].
// Negative factors sound on the left channel, positive on the right.
func (g *Generator) SetPitchFactor(factor float64) {
	factor = math.Max(-1, math.Min(1, factor))
	g.SetFrequency(g.curve.Frequency(factor, g.maxFreq))
}

// SetFrequency sets the signed frequency in Hz directly.
func (g *Generator) SetFrequency(hz float64) {
	g.frequency.Store(math.Float64bits(hz))
}

// Frequency returns the current signed frequency in Hz.
func (g *Generator) Frequency() float64 {
	return math.Float64frombits(g.frequency.Load())
}

// SetWaveform changes the tone shape. Unknown waveforms are rejected.
func (g *Generator) SetWaveform(w Waveform) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWaveform, int(w))
	}
	g.waveform.Store(int32(w))
	return nil
}

// Waveform returns the current tone shape.
func (g *Generator) Waveform() Waveform {
	return Waveform(g.waveform.Load())
}

// SetGain sets the output amplitude, clamped to [0, 1].
func (g *Generator) SetGain(gain float64) {
	g.gain.Store(math.Float64bits(math.Max(0, math.Min(1, gain))))
}

// Gain returns the output amplitude.
func (g *Generator) Gain() float64 {
	return math.Float64frombits(g.gain.Load())
}

// SetPulseDuration sets the burst length in ms. It takes effect on the next Reset.
func (g *Generator) SetPulseDuration(ms int) {
	if ms < 0 {
		ms = 0
	}
	g.pulseMs.Store(int64(ms))
}

// PulseDuration returns the burst length in ms (0 = continuous).
func (g *Generator) PulseDuration() int {
	return int(g.pulseMs.Load())
}

// GateMode returns the current gate state.
func (g *Generator) GateMode() GateMode {
	return GateMode(g.mode.Load())
}

// Reset restarts the pulse cycle: continuous when no pulse duration is set,
// otherwise silent until the first burst is due.
func (g *Generator) Reset() {
	g.mode.Store(int32(g.initialMode()))
	g.resetPending.Store(true)
}

func (g *Generator) initialMode() GateMode {
	if g.pulseMs.Load() == 0 {
		return GateContinuous
	}
	return GateOff
}

// Render fills buf with interleaved stereo frames and returns the number of
// samples written. A trailing odd sample is left untouched.
func (g *Generator) Render(buf []float32) int {
	g.renderMu.Lock()
	defer g.renderMu.Unlock()

	if g.resetPending.Swap(false) {
		g.accMs = 0
		g.mode.Store(int32(g.initialMode()))
	}

	frequency := g.Frequency()
	absFreq := math.Abs(frequency)
	pulseMs := float64(g.pulseMs.Load())
	wave := Waveform(g.waveform.Load())
	gain := g.Gain()
	mode := GateMode(g.mode.Load())

	interval := PulseInterval(frequency)

	freq := PulseFrequency
	if mode == GateContinuous {
		freq = absFreq
	}

	var stepLeft, stepRight float64
	leftActive, rightActive := frequency < 0, frequency > 0
	if leftActive {
		stepLeft = twoPi * freq / g.sampleRate
	}
	if rightActive {
		stepRight = twoPi * freq / g.sampleRate
	}

	frames := len(buf) / Channels
	out := 0
	for i := 0; i < frames; i++ {
		g.accMs += g.stepMs
		if mode == GateOff && g.accMs > interval {
			mode = GateOn
			g.accMs = 0
		} else if mode == GateOn && g.accMs > pulseMs {
			mode = GateOff
			g.accMs = 0
		}

		audible := mode != GateOff

		var left, right float64
		if audible && leftActive {
			left = shape(wave, math.Mod(g.phaseLeft, twoPi), g.harmonics, g.totalGain) * gain
		}
		if audible && rightActive {
			right = shape(wave, math.Mod(g.phaseRight, twoPi), g.harmonics, g.totalGain) * gain
		}
		buf[out] = float32(left)
		buf[out+1] = float32(right)
		out += Channels

		if audible {
			g.phaseLeft += stepLeft
			g.phaseRight += stepRight
		}
	}

	g.mode.Store(int32(mode))
	return out
}

// RenderFrames allocates and renders frameCount stereo frames.
func (g *Generator) RenderFrames(frameCount int) []float32 {
	if frameCount <= 0 {
		return nil
	}
	buf := make([]float32, frameCount*Channels)
	g.Render(buf)
	return buf
}
