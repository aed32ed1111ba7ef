// Package log provides structured logging for the tracking task.
// It wraps slog with sensible defaults and an optional JSON log file.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
	mu     sync.Mutex
)

// Config selects the log level and an optional file sink.
type Config struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level" json:"level"`

	// File receives JSON records in addition to the terminal. Empty disables it.
	File string `yaml:"file" json:"file"`
}

// Options configures Setup.
type Options struct {
	Config

	// Writer is the terminal output. Default: os.Stdout
	Writer io.Writer
}

// ParseLevel converts a level name. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the global logger and installs it as slog's default. The
// returned closer flushes the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	mu.Lock()
	defer mu.Unlock()

	level.Set(ParseLevel(opts.Level))
	hopts := &slog.HandlerOptions{Level: level}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	// Use JSON in production, text in development
	var terminal slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		terminal = slog.NewJSONHandler(w, hopts)
	} else {
		terminal = slog.NewTextHandler(w, hopts)
	}

	handlers := []slog.Handler{terminal}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, hopts))
		closer = f
	}

	logger = slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return closer, nil
}

// Init initializes the global logger with the specified level and no file.
// Valid levels: "debug", "info", "warn", "error"
func Init(levelName string) {
	Setup(Options{Config: Config{Level: levelName}})
}

// SetLevel changes the level of the running logger.
func SetLevel(levelName string) {
	level.Set(ParseLevel(levelName))
}

// L returns the global logger instance.
func L() *slog.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		Init("info")
		mu.Lock()
		l = logger
		mu.Unlock()
	}
	return l
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
