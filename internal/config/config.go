package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/mviflow/internal/logging"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "MVIFLOW_"

// Config is the complete application configuration.
type Config struct {
	Binder  BinderConfig  `toml:"binder" yaml:"binder" envPrefix:"BINDER_"`
	Counter CounterConfig `toml:"counter" yaml:"counter" envPrefix:"COUNTER_"`
}

// BinderConfig configures the state binder and its logging.
type BinderConfig struct {
	// SequentialActions handles each Action to completion before the next.
	SequentialActions bool `toml:"sequential_actions" yaml:"sequential_actions" env:"SEQUENTIAL_ACTIONS"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level" env:"LOG_LEVEL"`

	// LogFile receives log output. Empty discards logs, since the terminal
	// is owned by the view.
	LogFile string `toml:"log_file" yaml:"log_file" env:"LOG_FILE"`
}

// CounterConfig configures the demo counter screen.
type CounterConfig struct {
	// Initial is the starting count.
	Initial int `toml:"initial" yaml:"initial" env:"INITIAL"`

	// Step is the default increment. Must not be zero.
	Step int `toml:"step" yaml:"step" env:"STEP"`

	// RefreshLatency is the simulated duration of a refresh.
	RefreshLatency Duration `toml:"refresh_latency" yaml:"refresh_latency" env:"REFRESH_LATENCY"`

	// FailEvery makes every Nth refresh fail. Zero disables failures.
	FailEvery int `toml:"fail_every" yaml:"fail_every" env:"FAIL_EVERY"`

	// StepScript is an optional Lua file defining step(action, count).
	// It is reloaded when the file changes.
	StepScript string `toml:"step_script" yaml:"step_script" env:"STEP_SCRIPT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Binder: BinderConfig{
			LogLevel: "info",
		},
		Counter: CounterConfig{
			Step:           1,
			RefreshLatency: Duration(300 * time.Millisecond),
		},
	}
}

// Load builds a Config from defaults, the file at path (if any) and the
// process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ uses the
// process environment.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, &ParseError{Path: "env", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if !logging.ValidLogLevel(c.Binder.LogLevel) {
		return &ValidationError{Setting: "binder.log_level", Message: fmt.Sprintf("unknown level %q", c.Binder.LogLevel)}
	}
	if c.Counter.Step == 0 {
		return &ValidationError{Setting: "counter.step", Message: "must not be zero"}
	}
	if c.Counter.RefreshLatency < 0 {
		return &ValidationError{Setting: "counter.refresh_latency", Message: "must not be negative"}
	}
	if c.Counter.FailEvery < 0 {
		return &ValidationError{Setting: "counter.fail_every", Message: "must not be negative"}
	}
	return nil
}

// LogLevel returns the parsed binder log level.
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLogLevel(c.Binder.LogLevel)
}
