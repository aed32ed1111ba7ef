// CTT - critical tracking task with audio feedback and remote control
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-ctt/internal/config"
	ctlog "github.com/teslashibe/go-ctt/internal/log"
	"github.com/teslashibe/go-ctt/pkg/audioio"
	"github.com/teslashibe/go-ctt/pkg/ctt"
	"github.com/teslashibe/go-ctt/pkg/input"
)

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	closer, err := ctlog.Setup(ctlog.Options{Config: opts.Config.Log})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	for _, f := range opts.Config.Fallbacks {
		ctlog.Warn("invalid setting replaced by default", "detail", f)
	}

	app, err := ctt.New(opts)
	if err != nil {
		ctlog.Error("configuration error", "error", err)
		os.Exit(2)
	}

	if err := app.Init(); err != nil {
		ctlog.Error("initialization failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		ctlog.Error("runtime error", "error", err)
	}
}

// parseFlags loads the configuration file and applies command line flags,
// which take precedence over the file and the environment.
func parseFlags() (ctt.Options, error) {
	configPath := flag.String("config", "", "YAML configuration file")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTicks := flag.Bool("debug-ticks", false, "Trace every simulation tick (very verbose)")
	remoteAddr := flag.String("remote-addr", "", "Remote control listen address (default :8964)")
	noRemote := flag.Bool("no-remote", false, "Disable the remote control server")
	webPort := flag.String("web-port", "", "Status server port (default 8080)")
	noWeb := flag.Bool("no-web", false, "Disable the status server")
	audioBackend := flag.String("audio", "", "Audio backend: "+fmt.Sprint(audioio.AvailableBackends()))
	tone := flag.Bool("tone", false, "Enable the audible tone")
	inputBackend := flag.String("input", "", "Input backend: mock, serial, none")
	serialPort := flag.String("serial-port", "", "Serial joystick port (implies -input serial)")
	sessionDir := flag.String("session-dir", "", "Directory for ctt-<time>.txt data files")
	database := flag.String("db", "", "SQLite trial history database")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", "", "Also write JSON logs to this file")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return ctt.Options{}, err
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *remoteAddr != "" {
		cfg.Remote.Addr = *remoteAddr
	}
	if *noRemote {
		cfg.Remote.Enabled = false
	}
	if *webPort != "" {
		cfg.Web.Port = *webPort
	}
	if *noWeb {
		cfg.Web.Enabled = false
	}
	if *audioBackend != "" {
		cfg.Audio.Backend = audioio.Backend(*audioBackend)
	}
	if set["tone"] {
		cfg.Tone.Enabled = *tone
	}
	if *inputBackend != "" {
		cfg.Input.Backend = input.Backend(*inputBackend)
	}
	if *serialPort != "" {
		cfg.Input.Serial.Port = *serialPort
		if *inputBackend == "" {
			cfg.Input.Backend = input.BackendSerial
		}
	}
	if *sessionDir != "" {
		cfg.Session.Dir = *sessionDir
	}
	if *database != "" {
		cfg.Session.Database = *database
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *debugFlag && !set["log-level"] {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return ctt.Options{}, err
	}

	if *printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return ctt.Options{}, err
		}
		os.Stdout.Write(data)
		os.Exit(0)
	}

	opts := ctt.DefaultOptions()
	opts.Config = cfg
	opts.Debug = *debugFlag
	opts.DebugTicks = *debugTicks
	return opts, nil
}
