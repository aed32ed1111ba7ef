package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink records the rendered signal to a 16-bit stereo WAV file.
// Each Start on a stopped sink opens a new file in Device.
type WAVSink struct {
	*pump

	fileMu  sync.Mutex
	dir     string
	path    string
	file    *os.File
	enc     *wav.Encoder
	pcm     []int16
	intData []int
	format  *audio.Format
}

// NewWAVSink creates a WAV recording sink. An empty Device writes to the
// working directory.
func NewWAVSink(cfg Config, logger *slog.Logger) (*WAVSink, error) {
	dir := cfg.Device
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create wav dir: %w", err)
	}
	return &WAVSink{
		pump:   newPump(cfg, string(BackendWAV), logger),
		dir:    dir,
		format: &audio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
	}, nil
}

// Start opens a new recording and begins pulling from r.
func (w *WAVSink) Start(ctx context.Context, r Renderer) error {
	return w.start(ctx, r, w.open, w.write, w.finish)
}

func (w *WAVSink) open() error {
	w.fileMu.Lock()
	defer w.fileMu.Unlock()

	name := fmt.Sprintf("tone-%s.wav", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}

	w.file = f
	w.path = path
	w.enc = wav.NewEncoder(f, w.cfg.SampleRate, 16, w.cfg.Channels, 1)
	w.logger.Info("recording tone", "path", path)
	return nil
}

func (w *WAVSink) write(buf []float32) error {
	w.fileMu.Lock()
	defer w.fileMu.Unlock()

	if w.enc == nil {
		return ErrClosed
	}

	w.pcm = FloatToPCM16(w.pcm, buf)
	if cap(w.intData) < len(w.pcm) {
		w.intData = make([]int, len(w.pcm))
	}
	w.intData = w.intData[:len(w.pcm)]
	for i, s := range w.pcm {
		w.intData[i] = int(s)
	}

	return w.enc.Write(&audio.IntBuffer{
		Format:         w.format,
		Data:           w.intData,
		SourceBitDepth: 16,
	})
}

func (w *WAVSink) finish() {
	w.fileMu.Lock()
	defer w.fileMu.Unlock()

	if w.enc != nil {
		if err := w.enc.Close(); err != nil {
			w.logger.Warn("failed to finalize wav", "path", w.path, "error", err)
		}
		w.enc = nil
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			w.logger.Warn("failed to close wav", "path", w.path, "error", err)
		}
		w.file = nil
	}
}

// Path returns the file of the most recent recording.
func (w *WAVSink) Path() string {
	w.fileMu.Lock()
	defer w.fileMu.Unlock()
	return w.path
}

// Stop finalizes the current recording.
func (w *WAVSink) Stop() error {
	w.stop()
	return nil
}

// Config returns the audio configuration.
func (w *WAVSink) Config() Config { return w.cfg }

// Name returns "wav".
func (w *WAVSink) Name() string { return string(BackendWAV) }

// Close finalizes any recording and releases resources.
func (w *WAVSink) Close() error {
	w.close()
	return nil
}

// Stats returns sink statistics.
func (w *WAVSink) Stats() SinkStats { return w.stats() }

var _ SinkWithStats = (*WAVSink)(nil)
