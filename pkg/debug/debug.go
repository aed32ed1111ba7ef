// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Ticks controls whether per-tick simulation traces are shown (offset, input, noise)
// Use --debug-ticks to enable these very verbose logs
var Ticks bool

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects debug output (tests use a buffer).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func printf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format, args...)
}

// Log prints a message only if debug mode is enabled
func Log(format string, args ...any) {
	if Enabled {
		printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		printf("%s\n", msg)
	}
}

// TickLog prints a message only if tick tracing is enabled
func TickLog(format string, args ...any) {
	if Ticks {
		printf(format, args...)
	}
}
