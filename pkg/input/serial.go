package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"

	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// SerialDevice reads positions from a microcontroller that streams one
// "x,y" line per reading (floats in [-1, 1]; tabs or spaces also separate).
type SerialDevice struct {
	port   io.ReadCloser
	logger *slog.Logger
	pos    position

	lines   atomic.Int64
	invalid atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// OpenSerial opens a serial port and starts reading.
func OpenSerial(cfg SerialConfig, logger *slog.Logger) (*SerialDevice, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	return NewSerialDevice(port, logger), nil
}

// NewSerialDevice starts reading lines from port.
func NewSerialDevice(port io.ReadCloser, logger *slog.Logger) *SerialDevice {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &SerialDevice{
		port:   port,
		logger: logger.With("component", "input", "backend", "serial"),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.monitor(ctx)
	return d
}

func (d *SerialDevice) monitor(ctx context.Context) {
	defer close(d.done)

	scan := bufio.NewScanner(d.port)
	for scan.Scan() {
		if ctx.Err() != nil {
			return
		}
		d.lines.Add(1)
		s, err := ParseLine(scan.Text())
		if err != nil {
			if d.invalid.Add(1) == 1 {
				d.logger.Warn("ignoring malformed input line", "line", scan.Text(), "error", err)
			}
			continue
		}
		d.pos.store(s)
	}
	if err := scan.Err(); err != nil && ctx.Err() == nil {
		d.logger.Warn("serial input stopped", "error", err)
	}
}

// ParseLine decodes an "x,y" reading.
func ParseLine(line string) (tracking.Sample, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(line), func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return tracking.Sample{}, fmt.Errorf("want 2 fields, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return tracking.Sample{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return tracking.Sample{}, fmt.Errorf("y: %w", err)
	}
	return tracking.Sample{X: clampAxis(x), Y: clampAxis(y)}, nil
}

// Latest returns the most recent valid reading.
func (d *SerialDevice) Latest() tracking.Sample { return d.pos.load() }

// Name returns "serial".
func (d *SerialDevice) Name() string { return string(BackendSerial) }

// Stats returns the number of lines read and rejected.
func (d *SerialDevice) Stats() (lines, invalid int64) {
	return d.lines.Load(), d.invalid.Load()
}

// Close stops reading and closes the port.
func (d *SerialDevice) Close() error {
	var err error
	d.once.Do(func() {
		d.cancel()
		err = d.port.Close()
		<-d.done
	})
	return err
}
