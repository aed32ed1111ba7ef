package ctt

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-ctt/internal/timeutil"
	"github.com/teslashibe/go-ctt/pkg/audioio"
	"github.com/teslashibe/go-ctt/pkg/input"
	"github.com/teslashibe/go-ctt/pkg/remote"
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

type harness struct {
	app    *App
	clock  *timeutil.MockClock
	dev    *input.MockDevice
	dir    string
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	opts := DefaultOptions()
	cfg := &opts.Config
	cfg.Remote.Addr = "127.0.0.1:0"
	cfg.Web.Enabled = false
	cfg.Tone.Enabled = true
	cfg.Audio.Backend = audioio.BackendMock
	cfg.Session.Dir = dir
	cfg.Session.Database = filepath.Join(dir, "ctt.db")

	h := &harness{
		clock: timeutil.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		dev:   input.NewMockDevice(),
		dir:   dir,
		done:  make(chan struct{}),
	}
	opts.Clock = h.clock
	opts.Device = h.dev
	opts.Rand = rand.New(rand.NewPCG(1, 2))

	app, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, app.Init())
	h.app = app

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.err = app.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
		}
		app.Shutdown()
	})

	require.Eventually(t, func() bool { return app.running.Load() && h.clock.Tickers() >= 1 },
		2*time.Second, time.Millisecond)
	return h
}

func (h *harness) dial(t *testing.T) *remote.Client {
	t.Helper()
	c, err := remote.Dial(h.app.Remote().Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.Eventually(t, h.app.Remote().Connected, time.Second, time.Millisecond)
	return c
}

// tick advances the clock one sampling interval and waits for the engine.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	before := h.app.Engine().Snapshot().Ticks
	h.clock.Advance(20 * time.Millisecond)
	require.Eventually(t, func() bool { return h.app.Engine().Snapshot().Ticks > before },
		time.Second, time.Millisecond)
}

func TestApp_RemoteSession(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)
	engine := h.app.Engine()

	assert.True(t, h.app.Status().RemoteConnected)

	require.NoError(t, c.Send("start"))
	require.Eventually(t, engine.Running, time.Second, time.Millisecond)

	h.dev.Set(0.5, 0)
	for range 5 {
		h.tick(t)
	}
	assert.Equal(t, 5, h.app.Recorder().RecordCount())
	assert.True(t, h.app.Status().ToneEnabled)

	// lambda is ignored while running
	require.NoError(t, c.Send("lambda 3"))
	require.NoError(t, c.Send("stop"))
	require.Eventually(t, func() bool { return !engine.Running() }, time.Second, time.Millisecond)
	assert.Equal(t, 0, engine.DifficultyIndex())

	require.NoError(t, c.Send("lambda 3"))
	require.Eventually(t, func() bool { return engine.DifficultyIndex() == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 2.0, engine.Difficulty())

	sums := h.app.Summaries()
	require.Len(t, sums, 1)
	assert.Equal(t, 5, sums[0].Samples)

	require.Eventually(t, func() bool {
		hist, err := h.app.History(context.Background(), 10)
		return err == nil && len(hist) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// exit terminates Run
	require.NoError(t, c.Send("exit"))
	select {
	case <-h.done:
		require.NoError(t, h.err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after exit")
	}

	h.app.Shutdown()
	path := h.app.SavedPath()
	require.NotEmpty(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, tracking.RecordHeader, lines[0])
	assert.Len(t, lines, 6)
}

func TestApp_ExitWhileRunningEndsTrial(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)

	require.NoError(t, c.Send("start"))
	require.Eventually(t, h.app.Engine().Running, time.Second, time.Millisecond)
	h.tick(t)

	require.NoError(t, c.Send("exit"))
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after exit")
	}
	assert.False(t, h.app.Engine().Running())
	assert.Len(t, h.app.Summaries(), 1)
}

func TestApp_SetTuning(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	input, noise := 12.0, 0.0
	require.NoError(t, h.app.SetTuning(ctx, tracking.TuningParams{InputGain: &input, NoiseGain: &noise}))
	assert.Equal(t, 12.0, *h.app.Tuning().InputGain)
	assert.Zero(t, *h.app.Tuning().NoiseGain)

	c := h.dial(t)
	require.NoError(t, c.Send("start"))
	require.Eventually(t, h.app.Engine().Running, time.Second, time.Millisecond)

	err := h.app.SetTuning(ctx, tracking.TuningParams{InputGain: &input})
	assert.ErrorIs(t, err, tracking.ErrRunning)

	h.cancel()
	<-h.done
	assert.ErrorIs(t, h.app.SetTuning(ctx, tracking.TuningParams{InputGain: &input}), ErrNotRunning)
}

func TestApp_SecondClientRejected(t *testing.T) {
	h := newHarness(t)
	h.dial(t)

	second, err := remote.Dial(h.app.Remote().Addr().String(), time.Second)
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.Closed(time.Second))
	assert.True(t, h.app.Remote().Connected())
}

func TestNew_InvalidConfig(t *testing.T) {
	opts := DefaultOptions()
	opts.Config.Tracking.Lambdas = nil
	_, err := New(opts)
	assert.ErrorIs(t, err, tracking.ErrInvalidConfig)
}

func TestApp_AudioFailureDisablesTone(t *testing.T) {
	opts := DefaultOptions()
	opts.Config.Remote.Enabled = false
	opts.Config.Web.Enabled = false
	opts.Config.Session.SaveOnExit = false
	opts.Config.Tone.Enabled = true
	opts.Config.Audio.Backend = audioio.BackendRTP
	opts.Config.Audio.Device = "not-a-host-port"
	opts.Device = input.NewMockDevice()

	app, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, app.Init())
	defer app.Shutdown()
	require.True(t, app.player.Enabled())

	// The receiver address cannot be dialed; the trial goes on silently.
	app.player.Start()
	assert.False(t, app.player.Enabled())
	assert.False(t, app.player.Playing())
}
