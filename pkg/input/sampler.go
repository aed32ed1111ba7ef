package input

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-ctt/internal/timeutil"
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// Sampler reads a Device at a fixed period and delivers the samples on a
// channel. A slow consumer loses ticks rather than receiving a backlog; the
// queued sample is always the newest one.
type Sampler struct {
	dev      Device
	clock    timeutil.Clock
	interval time.Duration
	logger   *slog.Logger

	out     chan tracking.Sample
	dropped atomic.Int64
}

// NewSampler creates a sampler. A nil clock uses the wall clock.
func NewSampler(dev Device, interval time.Duration, clock timeutil.Clock, logger *slog.Logger) *Sampler {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		dev:      dev,
		clock:    clock,
		interval: interval,
		logger:   logger.With("component", "input"),
		out:      make(chan tracking.Sample, 1),
	}
}

// Samples returns the sample channel.
func (s *Sampler) Samples() <-chan tracking.Sample {
	return s.out
}

// Dropped returns the number of ticks lost to a slow consumer.
func (s *Sampler) Dropped() int64 {
	return s.dropped.Load()
}

// Run samples until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("input sampling started", "backend", s.dev.Name(), "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			s.deliver(s.dev.Latest())
		}
	}
}

// deliver queues sample, replacing a stale one the consumer has not taken.
// Run is the only sender, so the second send cannot block.
func (s *Sampler) deliver(sample tracking.Sample) {
	select {
	case s.out <- sample:
		return
	default:
	}

	select {
	case <-s.out:
		if n := s.dropped.Add(1); n%50 == 1 {
			s.logger.Debug("input tick dropped", "total", n)
		}
	default:
	}
	select {
	case s.out <- sample:
	default:
	}
}
