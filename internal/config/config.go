// Package config loads the application configuration: defaults, then an
// optional YAML file, then CTT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	ctlog "github.com/teslashibe/go-ctt/internal/log"
	"github.com/teslashibe/go-ctt/pkg/audioio"
	"github.com/teslashibe/go-ctt/pkg/input"
	"github.com/teslashibe/go-ctt/pkg/remote"
	"github.com/teslashibe/go-ctt/pkg/session"
	"github.com/teslashibe/go-ctt/pkg/tone"
	"github.com/teslashibe/go-ctt/pkg/tracking"
	"github.com/teslashibe/go-ctt/pkg/web"
)

// Environment variables that override the file.
const (
	EnvRemoteAddr   = "CTT_REMOTE_ADDR"
	EnvWebPort      = "CTT_WEB_PORT"
	EnvLogLevel     = "CTT_LOG_LEVEL"
	EnvAudioBackend = "CTT_AUDIO_BACKEND"
	EnvInputBackend = "CTT_INPUT_BACKEND"
	EnvSerialPort   = "CTT_SERIAL_PORT"
)

// Config is the root configuration.
type Config struct {
	Tracking tracking.Config `yaml:"tracking" json:"tracking"`
	Tone     tone.Config     `yaml:"tone" json:"tone"`
	Audio    audioio.Config  `yaml:"audio" json:"audio"`
	Input    input.Config    `yaml:"input" json:"input"`
	Remote   remote.Config   `yaml:"remote" json:"remote"`
	Web      web.Config      `yaml:"web" json:"web"`
	Session  session.Config  `yaml:"session" json:"session"`
	Log      ctlog.Config    `yaml:"log" json:"log"`

	// Fallbacks lists settings that were invalid and replaced by defaults.
	Fallbacks []string `yaml:"-" json:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Tracking: tracking.DefaultConfig(),
		Tone:     tone.DefaultConfig(),
		Audio:    audioio.DefaultConfig(),
		Input:    input.DefaultConfig(),
		Remote:   remote.DefaultConfig(),
		Web:      web.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Log:      ctlog.Config{Level: "info"},
	}
}

// Load reads path (optional) over the defaults and applies environment
// overrides. A missing path is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// Parse decodes YAML into cfg, keeping values that data does not set. An
// unusable difficulty list falls back to the default list.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	probe := tracking.DefaultConfig()
	probe.Lambdas = cfg.Tracking.Lambdas
	if err := probe.Validate(); err != nil {
		cfg.Tracking.Lambdas = append([]float64(nil), tracking.DefaultLambdas...)
		cfg.Fallbacks = append(cfg.Fallbacks, "tracking.lambdas: "+err.Error())
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvRemoteAddr); v != "" {
		c.Remote.Addr = v
	}
	if v := getenv(EnvWebPort); v != "" {
		c.Web.Port = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvAudioBackend); v != "" {
		c.Audio.Backend = audioio.Backend(strings.ToLower(v))
	}
	if v := getenv(EnvInputBackend); v != "" {
		c.Input.Backend = input.Backend(strings.ToLower(v))
	}
	if v := getenv(EnvSerialPort); v != "" {
		c.Input.Serial.Port = v
		if getenv(EnvInputBackend) == "" {
			c.Input.Backend = input.BackendSerial
		}
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	return errors.Join(
		c.Tracking.Validate(),
		c.Tone.Validate(),
		c.Audio.Validate(),
		c.Input.Validate(),
		c.Remote.Validate(),
		c.Web.Validate(),
		c.Session.Validate(),
	)
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
