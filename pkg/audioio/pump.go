package audioio

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// rendererBox lets a Renderer interface value live in an atomic.Pointer.
type rendererBox struct{ r Renderer }

// pump pulls one buffer from a Renderer every BufferDuration and passes it to
// emit. It backs every sink that has no device clock of its own.
type pump struct {
	cfg    Config
	logger *slog.Logger
	name   string

	renderer atomic.Pointer[rendererBox]

	mu      sync.Mutex
	running bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}

	buffers   atomic.Int64
	samples   atomic.Int64
	underruns atomic.Int64
}

func newPump(cfg Config, name string, logger *slog.Logger) *pump {
	if logger == nil {
		logger = slog.Default()
	}
	return &pump{
		cfg:    cfg,
		logger: logger.With("component", "audioio", "backend", name),
		name:   name,
	}
}

// start launches the pull loop. open runs under the lock before the loop
// starts and may prepare per-run resources; finish runs when the loop exits.
func (p *pump) start(ctx context.Context, r Renderer, open func() error, emit func([]float32) error, finish func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.renderer.Store(&rendererBox{r: r})
	if p.running {
		return nil
	}

	if open != nil {
		if err := open(); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(runCtx, emit, finish, p.done)

	p.logger.Info("audio sink started",
		"sample_rate", p.cfg.SampleRate,
		"buffer_ms", p.cfg.BufferDuration.Milliseconds(),
	)
	return nil
}

func (p *pump) loop(ctx context.Context, emit func([]float32) error, finish func(), done chan struct{}) {
	defer close(done)
	if finish != nil {
		defer finish()
	}

	ticker := time.NewTicker(p.cfg.BufferDuration)
	defer ticker.Stop()

	buf := make([]float32, p.cfg.BufferSamples())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.renderOnce(buf)
			if err := emit(buf); err != nil {
				p.logger.Warn("audio sink write failed, stopping", "error", err)
				return
			}
		}
	}
}

// renderOnce fills buf from the current renderer, padding with silence.
func (p *pump) renderOnce(buf []float32) {
	n := 0
	if box := p.renderer.Load(); box != nil && box.r != nil {
		n = box.r.Render(buf)
	}
	if n < 0 {
		n = 0
	}
	if n < len(buf) {
		clear(buf[n:])
		p.underruns.Add(1)
	}
	p.buffers.Add(1)
	p.samples.Add(int64(n))
}

func (p *pump) stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
	p.logger.Info("audio sink stopped")
}

func (p *pump) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.stop()
}

func (p *pump) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *pump) stats() SinkStats {
	return SinkStats{
		BuffersRendered: p.buffers.Load(),
		SamplesRendered: p.samples.Load(),
		Underruns:       p.underruns.Load(),
		Running:         p.isRunning(),
		Backend:         p.name,
	}
}
