// Package config provides unified configuration loading for streamkit.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("streamkit.yaml").
//	    WithEnvPrefix("STREAMKIT").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete streamkit configuration.
type Config struct {
	// Stream configures aggregation and throttled emission.
	Stream StreamConfig `yaml:"stream"`

	// Retry configures the backoff retry helper.
	Retry RetryConfig `yaml:"retry"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log"`
}

// StreamConfig configures the streaming core.
type StreamConfig struct {
	// UpdateInterval is the throttle window between consumer flushes.
	UpdateInterval time.Duration `yaml:"update_interval"`
	// PaceUnitsPerSec paces unit delivery; 0 disables pacing.
	PaceUnitsPerSec float64 `yaml:"pace_units_per_sec"`
	// KeepDelimiters switches the aggregator to verbatim-segment mode.
	KeepDelimiters bool `yaml:"keep_delimiters"`
	// TokenizerModel enables token accounting for the named model;
	// empty disables it.
	TokenizerModel string `yaml:"tokenizer_model"`
}

// RetryConfig configures the retry helper.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Jitter       bool          `yaml:"jitter"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format: json or console.
	Format string `yaml:"format"`
	// OutputPaths are zap output paths.
	OutputPaths []string `yaml:"output_paths"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			UpdateInterval:  100 * time.Millisecond,
			PaceUnitsPerSec: 0,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Stream.UpdateInterval <= 0 {
		return fmt.Errorf("stream.update_interval must be positive, got %v", c.Stream.UpdateInterval)
	}
	if c.Stream.PaceUnitsPerSec < 0 {
		return fmt.Errorf("stream.pace_units_per_sec must not be negative, got %v", c.Stream.PaceUnitsPerSec)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry.multiplier must be at least 1.0, got %v", c.Retry.Multiplier)
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("retry.max_delay %v is below retry.initial_delay %v", c.Retry.MaxDelay, c.Retry.InitialDelay)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	return nil
}

// Loader loads configuration with the defaults -> file -> env chain.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a Loader with no file and no env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "STREAMKIT"}
}

// WithConfigPath sets the YAML file to load. An empty path skips the
// file stage.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load produces the effective configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.configPath, err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides individual fields from the environment.
func (l *Loader) applyEnv(cfg *Config) {
	if v, ok := l.lookup("STREAM_UPDATE_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stream.UpdateInterval = d
		}
	}
	if v, ok := l.lookup("STREAM_PACE_UNITS_PER_SEC"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Stream.PaceUnitsPerSec = f
		}
	}
	if v, ok := l.lookup("STREAM_KEEP_DELIMITERS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Stream.KeepDelimiters = b
		}
	}
	if v, ok := l.lookup("STREAM_TOKENIZER_MODEL"); ok {
		cfg.Stream.TokenizerModel = v
	}
	if v, ok := l.lookup("RETRY_MAX_ATTEMPTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v, ok := l.lookup("RETRY_INITIAL_DELAY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.InitialDelay = d
		}
	}
	if v, ok := l.lookup("RETRY_MAX_DELAY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.MaxDelay = d
		}
	}
	if v, ok := l.lookup("RETRY_MULTIPLIER"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retry.Multiplier = f
		}
	}
	if v, ok := l.lookup("RETRY_JITTER"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Retry.Jitter = b
		}
	}
	if v, ok := l.lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := l.lookup("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
}

func (l *Loader) lookup(key string) (string, bool) {
	if l.envPrefix != "" {
		key = l.envPrefix + "_" + key
	}
	return os.LookupEnv(key)
}
