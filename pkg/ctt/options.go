// Package ctt assembles the critical tracking task: engine, tone, input,
// remote control, status server and session log, driven by one simulation
// goroutine.
package ctt

import (
	"math/rand/v2"

	"github.com/teslashibe/go-ctt/internal/config"
	"github.com/teslashibe/go-ctt/internal/timeutil"
	"github.com/teslashibe/go-ctt/pkg/input"
)

// Options holds everything New needs. Flag parsing is done in cmd/ctt;
// this struct is data only.
type Options struct {
	Config config.Config

	// Debug enables verbose debug output.
	Debug bool

	// DebugTicks traces every simulation tick (very verbose).
	DebugTicks bool

	// Clock drives the input sampler and the engine. Default: real time.
	Clock timeutil.Clock

	// Rand seeds the noise. Default: random.
	Rand *rand.Rand

	// Device replaces the configured input device (tests, embedding).
	Device input.Device
}

// DefaultOptions returns options with the default configuration.
func DefaultOptions() Options {
	return Options{Config: config.DefaultConfig()}
}
