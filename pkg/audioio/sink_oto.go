//go:build !headless

package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const otoAvailable = true

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func sharedOtoContext(cfg Config) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.BufferDuration,
		})
		if err != nil {
			otoErr = fmt.Errorf("%w: oto: %v", ErrBackendUnavailable, err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// otoSink plays through the system device. The device pulls samples via
// Read on oto's own goroutine.
type otoSink struct {
	cfg    Config
	logger *slog.Logger

	renderer  atomic.Pointer[rendererBox]
	sampleBuf []float32

	mu      sync.Mutex
	player  *oto.Player
	running bool
	closed  bool

	buffers   atomic.Int64
	samples   atomic.Int64
	underruns atomic.Int64
}

func newOtoSink(cfg Config, logger *slog.Logger) (Sink, error) {
	return &otoSink{
		cfg:       cfg,
		logger:    logger.With("component", "audioio", "backend", "oto"),
		sampleBuf: make([]float32, cfg.BufferSamples()),
	}, nil
}

// Read implements io.Reader for the oto player.
func (s *otoSink) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	if len(s.sampleBuf) < numSamples {
		s.sampleBuf = make([]float32, numSamples)
	}
	samples := s.sampleBuf[:numSamples]

	n := 0
	if box := s.renderer.Load(); box != nil && box.r != nil {
		n = box.r.Render(samples)
	}
	if n < len(samples) {
		clear(samples[max(n, 0):])
		s.underruns.Add(1)
	}
	s.buffers.Add(1)
	s.samples.Add(int64(n))

	written := Float32ToBytesLE(p, samples)
	clear(p[written:])
	return len(p), nil
}

func (s *otoSink) Start(_ context.Context, r Renderer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.renderer.Store(&rendererBox{r: r})
	if s.running {
		return nil
	}

	if s.player == nil {
		ctx, err := sharedOtoContext(s.cfg)
		if err != nil {
			return err
		}
		s.player = ctx.NewPlayer(s)
	}
	s.player.Play()
	s.running = true

	s.logger.Info("audio sink started", "sample_rate", s.cfg.SampleRate)
	return nil
}

func (s *otoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.player.Pause()
	s.running = false
	s.logger.Info("audio sink stopped")
	return nil
}

func (s *otoSink) Config() Config { return s.cfg }

func (s *otoSink) Name() string { return string(BackendOto) }

func (s *otoSink) Close() error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
	return nil
}

func (s *otoSink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SinkStats{
		BuffersRendered: s.buffers.Load(),
		SamplesRendered: s.samples.Load(),
		Underruns:       s.underruns.Load(),
		Running:         running,
		Backend:         string(BackendOto),
	}
}

var _ SinkWithStats = (*otoSink)(nil)
