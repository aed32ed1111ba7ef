package ctt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-ctt/internal/timeutil"
	"github.com/teslashibe/go-ctt/pkg/audioio"
	"github.com/teslashibe/go-ctt/pkg/debug"
	"github.com/teslashibe/go-ctt/pkg/input"
	"github.com/teslashibe/go-ctt/pkg/remote"
	"github.com/teslashibe/go-ctt/pkg/session"
	"github.com/teslashibe/go-ctt/pkg/tone"
	"github.com/teslashibe/go-ctt/pkg/tracking"
	"github.com/teslashibe/go-ctt/pkg/web"
)

// ErrNotRunning is returned when work is submitted while the simulation
// goroutine is not running.
var ErrNotRunning = errors.New("ctt: simulation not running")

// App is the tracking task application.
// It manages all components and their lifecycle.
type App struct {
	opts   Options
	clock  timeutil.Clock
	logger *slog.Logger

	// Simulation
	engine  *tracking.Engine
	sampler *input.Sampler
	device  input.Device

	// Audio
	sink   audioio.Sink
	player *tone.Player

	// Control surfaces
	remote *remote.Server
	web    *web.Server

	// Session log
	recorder *session.Recorder
	store    *session.Store
	storeWG  sync.WaitGroup

	// Closures run on the simulation goroutine
	tasks   chan func()
	running atomic.Bool
	stopped chan struct{}

	remoteState atomic.Pointer[remote.ConnectionEvent]

	shutdownOnce sync.Once
	savedPath    string
}

// New validates the options and creates an application.
func New(opts Options) (*App, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	debug.Enabled = opts.Debug
	debug.Ticks = opts.DebugTicks

	return &App{
		opts:    opts,
		clock:   opts.Clock,
		logger:  slog.Default().With("component", "ctt"),
		tasks:   make(chan func()),
		stopped: make(chan struct{}),
	}, nil
}

// Init builds all components. Audio, serial and database failures are
// logged and the feature is disabled; a remote listener that cannot bind
// is fatal.
func (a *App) Init() error {
	cfg := a.opts.Config
	logger := slog.Default()

	a.recorder = session.NewRecorder(farOffset(cfg.Tracking), logger)
	if cfg.Session.Database != "" {
		store, err := session.OpenStore(cfg.Session.Database)
		if err != nil {
			a.logger.Warn("session database disabled", "path", cfg.Session.Database, "error", err)
		} else {
			a.store = store
		}
	}

	a.initAudio()

	engineOpts := []tracking.Option{
		tracking.WithTone(a.player),
		tracking.WithRecordSink(a.recorder),
		tracking.WithClock(a.clock),
		tracking.WithLogger(logger),
		tracking.WithListener(a.onEvent),
	}
	if a.opts.Rand != nil {
		engineOpts = append(engineOpts, tracking.WithRand(a.opts.Rand))
	}
	engine, err := tracking.New(cfg.Tracking, engineOpts...)
	if err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	a.engine = engine

	a.initInput()

	if cfg.Remote.Enabled {
		srv, err := remote.NewServer(cfg.Remote, logger)
		if err != nil {
			return fmt.Errorf("remote: %w", err)
		}
		if err := srv.Listen(); err != nil {
			return err
		}
		srv.OnConnectionChange(a.onRemote)
		a.remote = srv
	}

	if cfg.Web.Enabled {
		a.web = web.NewServer(cfg.Web, a, logger)
	}

	a.recorder.OnTrialEnd(a.onTrialEnd)

	a.logger.Info("tracking task ready",
		"lambdas", cfg.Tracking.Lambdas,
		"orientation", cfg.Tracking.Orientation,
		"input", a.device.Name(),
		"tone", a.player.Enabled(),
	)
	return nil
}

func (a *App) initAudio() {
	cfg := a.opts.Config

	gen, err := tone.NewGenerator(cfg.Tone, cfg.Audio.SampleRate)
	if err != nil {
		// Tone config was validated in New.
		a.logger.Warn("tone generator disabled", "error", err)
		gen, _ = tone.NewGenerator(tone.DefaultConfig(), cfg.Audio.SampleRate)
	}

	if cfg.Tone.Enabled {
		sink, err := audioio.NewSink(cfg.Audio, slog.Default())
		if err != nil {
			a.logger.Warn("audio output disabled", "backend", cfg.Audio.Backend, "error", err)
		} else {
			a.sink = sink
		}
	}
	a.player = tone.NewPlayer(gen, a.sink, cfg.Tone.Enabled, slog.Default())
}

func (a *App) initInput() {
	cfg := a.opts.Config

	dev := a.opts.Device
	if dev == nil {
		var err error
		dev, err = input.Open(cfg.Input, slog.Default())
		if err != nil {
			a.logger.Warn("input device unavailable, using centered input", "backend", cfg.Input.Backend, "error", err)
			dev, _ = input.Open(input.Config{Backend: input.BackendNone, Interval: cfg.Input.Interval}, slog.Default())
		}
	}
	a.device = dev
	a.sampler = input.NewSampler(dev, cfg.Input.Interval, a.clock, slog.Default())
}

// Run drives the simulation until ctx is cancelled or an exit command
// arrives. All engine mutations happen on this goroutine. Run may be called
// once.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.sampler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("input sampler stopped", "error", err)
		}
	}()

	var remoteCmds, webCmds <-chan remote.Command
	if a.remote != nil {
		remoteCmds = a.remote.Commands()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.remote.Serve(ctx); err != nil && !errors.Is(err, remote.ErrServerClosed) {
				a.logger.Error("remote server failed", "error", err)
			}
		}()
	}
	if a.web != nil {
		webCmds = a.web.Commands()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.web.Run(ctx); err != nil {
				a.logger.Warn("status server disabled", "error", err)
			}
		}()
	}

	a.running.Store(true)
	a.logger.Info("simulation running")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case s := <-a.sampler.Samples():
			a.engine.Update(s)
		case cmd := <-remoteCmds:
			if a.apply(cmd, "remote") {
				break loop
			}
		case cmd := <-webCmds:
			if a.apply(cmd, "web") {
				break loop
			}
		case fn := <-a.tasks:
			fn()
		}
	}

	a.running.Store(false)
	close(a.stopped)
	if a.engine.Running() {
		a.engine.Stop()
	}
	cancel()
	wg.Wait()
	a.logger.Info("simulation stopped")
	return nil
}

// apply executes a control command and reports whether the application
// should exit.
func (a *App) apply(cmd remote.Command, source string) bool {
	res := remote.Apply(cmd, a.engine)
	if res.Applied {
		a.logger.Info("command applied", "source", source, "command", cmd.String())
	} else {
		a.logger.Debug("command ignored", "source", source, "command", cmd.String(), "running", a.engine.Running())
	}
	return res.Exit
}

// Shutdown stops audio, closes devices and the database and saves the
// session log. It is safe to call more than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if a.engine != nil && a.engine.Running() {
			a.engine.Stop()
		}
		if a.remote != nil {
			a.remote.Close()
		}
		if a.player != nil {
			a.player.Close()
		}
		if a.device != nil {
			a.device.Close()
		}

		a.storeWG.Wait()
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				a.logger.Warn("close session database", "error", err)
			}
		}

		if a.recorder != nil && a.opts.Config.Session.SaveOnExit {
			path, err := a.recorder.Save(a.opts.Config.Session.Dir, a.clock.Now())
			if err != nil {
				a.logger.Error("save session", "error", err)
			}
			a.savedPath = path
		}
		a.logger.Info("shutdown complete")
	})
}

// runOnSim executes fn on the simulation goroutine and waits for it.
func (a *App) runOnSim(ctx context.Context, fn func() error) error {
	if !a.running.Load() {
		return ErrNotRunning
	}
	done := make(chan error, 1)
	task := func() { done <- fn() }

	select {
	case a.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.stopped:
		return ErrNotRunning
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) onEvent(ev tracking.Event) {
	if ev.Kind != tracking.EventPositionChanged {
		debug.Log("📈 %s\n", ev)
	}
	if a.web != nil {
		a.web.PublishEvent(ev)
	}
}

func (a *App) onRemote(ev remote.ConnectionEvent) {
	a.remoteState.Store(&ev)
	if a.web != nil {
		a.web.PublishRemote(ev)
	}
}

func (a *App) onTrialEnd(t session.Trial, sum session.Summary) {
	if a.web != nil {
		a.web.PublishTrial(sum)
	}
	if a.store == nil {
		return
	}
	a.storeWG.Add(1)
	go func() {
		defer a.storeWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.store.SaveTrial(ctx, t, sum); err != nil {
			a.logger.Warn("store trial", "trial", t.ID, "error", err)
		}
	}()
}

// farOffset converts the pixel far threshold to offset units.
func farOffset(cfg tracking.Config) float64 {
	return cfg.EffectiveFarThreshold() / cfg.HalfExtent()
}

// Engine returns the tracking engine. Mutate it only from Run's goroutine.
func (a *App) Engine() *tracking.Engine { return a.engine }

// Recorder returns the session recorder.
func (a *App) Recorder() *session.Recorder { return a.recorder }

// Device returns the active input device.
func (a *App) Device() input.Device { return a.device }

// Remote returns the remote control server, or nil when disabled.
func (a *App) Remote() *remote.Server { return a.remote }

// Web returns the status server, or nil when disabled.
func (a *App) Web() *web.Server { return a.web }

// SavedPath returns the session file written by Shutdown, if any.
func (a *App) SavedPath() string { return a.savedPath }
