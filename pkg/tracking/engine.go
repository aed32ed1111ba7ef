// Package tracking implements the critical tracking task: an unstable
// first-order process the operator keeps centered with an analog input.
package tracking

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/teslashibe/go-ctt/internal/timeutil"
	"github.com/teslashibe/go-ctt/pkg/debug"
)

// Sample is one normalized input reading, both axes in [-1, 1].
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	Running            bool        `json:"running"`
	DifficultyIndex    int         `json:"difficulty_index"`
	Difficulty         float64     `json:"difficulty"`
	Lambdas            []float64   `json:"lambdas"`
	Orientation        Orientation `json:"orientation"`
	Offset             float64     `json:"offset"`
	Position           float64     `json:"position"`
	HalfExtent         float64     `json:"half_extent"`
	Far                bool        `json:"far"`
	Line               LineStyle   `json:"line"`
	NoisePhase         float64     `json:"noise_phase"`
	TrackingSeconds    float64     `json:"tracking_seconds"`
	ProperSeconds      float64     `json:"proper_tracking_seconds"`
	LongProperTracking bool        `json:"long_proper_tracking"`
	Ticks              int64       `json:"ticks"`
}

// Engine advances the marker each tick and owns the trial lifecycle.
//
// All mutating methods must be called from one goroutine (the simulation
// goroutine). Snapshot may be called from anywhere.
type Engine struct {
	logger    *slog.Logger
	clock     timeutil.Clock
	rng       *rand.Rand
	tone      ToneOutput
	sink      RecordSink
	listeners []Listener

	mu  sync.RWMutex
	cfg Config

	running     bool
	index       int
	lambda      float64
	orientation Orientation
	ref         float64
	offset      float64
	noise       *NoiseSource
	far         bool
	ticks       int64

	trackingStart   time.Time
	properStart     time.Time
	trackingSeconds float64
	properSeconds   float64
	properRounded   float64
	longProper      bool
	trialStart      time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTone attaches the tone output.
func WithTone(t ToneOutput) Option {
	return func(e *Engine) { e.tone = t }
}

// WithRecordSink attaches the data-log consumer.
func WithRecordSink(s RecordSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithClock replaces the wall clock (tests use timeutil.MockClock).
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand sets the source used to seed the noise phase.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithListener registers an event listener.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// New creates a stopped engine at difficulty index 0.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg.clone(),
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "tracking")
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e.noise = NewNoiseSource(e.cfg.NoiseStep)
	e.orientation = e.cfg.Orientation
	e.index = 0
	e.lambda = e.cfg.Lambdas[0]
	e.reset(e.clock.Now(), nil)

	return e, nil
}

// AddListener registers an event listener. Call it before the simulation
// goroutine starts.
func (e *Engine) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Running reports whether a trial is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// DifficultyIndex returns the selected lambda index.
func (e *Engine) DifficultyIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

// Difficulty returns the selected lambda value.
func (e *Engine) Difficulty() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lambda
}

// LambdaCount returns the length of the difficulty list.
func (e *Engine) LambdaCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cfg.Lambdas)
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.clone()
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Snapshot{
		Running:            e.running,
		DifficultyIndex:    e.index,
		Difficulty:         e.lambda,
		Lambdas:            append([]float64(nil), e.cfg.Lambdas...),
		Orientation:        e.orientation,
		Offset:             e.offset,
		Position:           e.offset * e.ref,
		HalfExtent:         e.ref,
		Far:                e.far,
		Line:               e.lineStyle(e.far),
		NoisePhase:         e.noise.Phase(),
		TrackingSeconds:    e.trackingSeconds,
		ProperSeconds:      e.properSeconds,
		LongProperTracking: e.longProper,
		Ticks:              e.ticks,
	}
}

// Start begins a trial: the state is reset, the tone restarts and the record
// sink receives a new header. Callers only start a stopped engine.
func (e *Engine) Start() {
	now := e.clock.Now()

	e.mu.Lock()
	wasRunning := e.running
	prev := e.trialInfo(now)
	e.running = true
	events := []Event{{Kind: EventRunningChanged, Time: now, Running: true}}
	events = e.reset(now, events)
	e.trialStart = now
	info := e.trialInfo(time.Time{})
	e.mu.Unlock()

	if wasRunning && e.sink != nil {
		e.sink.EndTrial(prev)
	}
	if e.tone != nil {
		e.tone.Start()
	}
	if e.sink != nil {
		e.sink.BeginTrial(info)
	}

	e.logger.Info("trial started", "lambda", info.Lambda, "orientation", info.Orientation)
	e.emit(events)
}

// Stop ends the trial, silences the tone and resets the state.
func (e *Engine) Stop() {
	now := e.clock.Now()

	e.mu.Lock()
	wasRunning := e.running
	info := e.trialInfo(now)
	ticks := e.ticks
	e.running = false
	events := []Event{{Kind: EventRunningChanged, Time: now, Running: false}}
	events = e.reset(now, events)
	e.mu.Unlock()

	if e.tone != nil {
		e.tone.Stop()
	}
	if wasRunning && e.sink != nil {
		e.sink.EndTrial(info)
	}

	if wasRunning {
		e.logger.Info("trial stopped",
			"lambda", info.Lambda,
			"duration", info.End.Sub(info.Start).Round(time.Millisecond),
			"ticks", ticks,
		)
	}
	e.emit(events)
}

// SetDifficultyIndex selects lambda i. Out-of-range indices are ignored and
// reported as false.
func (e *Engine) SetDifficultyIndex(i int) bool {
	e.mu.Lock()
	if i < 0 || i >= len(e.cfg.Lambdas) {
		e.mu.Unlock()
		e.logger.Debug("difficulty index out of range", "index", i)
		return false
	}
	e.index = i
	e.lambda = e.cfg.Lambdas[i]
	ev := Event{
		Kind:            EventDifficultyChanged,
		Time:            e.clock.Now(),
		DifficultyIndex: e.index,
		Difficulty:      e.lambda,
	}
	e.mu.Unlock()

	e.logger.Info("difficulty changed", "index", ev.DifficultyIndex, "lambda", ev.Difficulty)
	e.emit([]Event{ev})
	return true
}

// SetOrientation switches the input axis and resets the state. It is only
// allowed while stopped.
func (e *Engine) SetOrientation(o Orientation) error {
	if !o.Valid() {
		return ErrInvalidOrientation
	}

	now := e.clock.Now()
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunning
	}
	var events []Event
	if o != e.orientation {
		e.orientation = o
		e.cfg.Orientation = o
		events = append(events, Event{Kind: EventOrientationChanged, Time: now, Orientation: o})
	}
	events = e.reset(now, events)
	e.mu.Unlock()

	e.emit(events)
	return nil
}

// Reconfigure replaces the configuration and resets the state. The difficulty
// index is kept when it is still in range, otherwise it falls back to 0.
// It is only allowed while stopped.
func (e *Engine) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	now := e.clock.Now()
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunning
	}

	var events []Event
	e.cfg = cfg.clone()
	e.noise = NewNoiseSource(e.cfg.NoiseStep)

	if e.index >= len(e.cfg.Lambdas) {
		e.index = 0
	}
	if lambda := e.cfg.Lambdas[e.index]; lambda != e.lambda {
		e.lambda = lambda
		events = append(events, Event{Kind: EventDifficultyChanged, Time: now, DifficultyIndex: e.index, Difficulty: lambda})
	}
	if e.cfg.Orientation != e.orientation {
		e.orientation = e.cfg.Orientation
		events = append(events, Event{Kind: EventOrientationChanged, Time: now, Orientation: e.orientation})
	}
	events = e.reset(now, events)
	e.mu.Unlock()

	e.logger.Info("configuration updated",
		"lambdas", len(cfg.Lambdas),
		"field_size", cfg.FieldSize,
		"far_threshold", cfg.EffectiveFarThreshold(),
	)
	e.emit(events)
	return nil
}

// Update advances the simulation by one tick. It does nothing while stopped.
func (e *Engine) Update(s Sample) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	cfg := &e.cfg

	noise := e.noise.Next()

	input := s.X
	if e.orientation == Vertical {
		input = s.Y
	}
	if math.IsNaN(input) {
		input = 0
	}
	input = clamp(input, -1, 1)

	speed := (e.offset*cfg.OffsetGain + input*cfg.InputGain + noise*cfg.NoiseGain) * e.lambda / e.ref
	e.offset = clamp(e.offset+speed, -1, 1)

	position := e.offset * e.ref
	events := []Event{{Kind: EventPositionChanged, Time: now, Offset: e.offset, Position: position}}

	if far := math.Abs(position) > cfg.EffectiveFarThreshold(); far != e.far {
		e.far = far
		events = append(events, Event{Kind: EventDistanceCategoryChanged, Time: now, Far: far, Line: e.lineStyle(far)})
	}

	events = e.updateDurations(now, events)

	record := Record{Time: now, Lambda: e.lambda, Offset: e.offset, Input: input}
	e.ticks++
	offset := e.offset
	e.mu.Unlock()

	if e.tone != nil {
		e.tone.SetPitchFactor(offset)
	}
	if e.sink != nil {
		e.sink.Add(record)
	}

	debug.TickLog("tick lambda=%.2f input=%+.4f noise=%+.4f offset=%+.4f\n", record.Lambda, input, noise, offset)
	e.emit(events)
}
