package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"template-transformer/internal/engine"
	"template-transformer/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "TRANSFORM_"

// Defaults.
const (
	DefaultSeparator   = ":"
	DefaultMaxContexts = engine.DefaultMaxContexts
	DefaultWorkers     = 1
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Config holds the engine settings.
type Config struct {
	// Separator is the default join separator of path values.
	Separator string `koanf:"separator"`
	// MaxContexts caps the flattened contexts of a run. A negative value
	// disables the cap.
	MaxContexts int `koanf:"max_contexts"`
	// Workers is the number of goroutines mapping contexts.
	Workers int `koanf:"workers"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
	// DumpStages logs the intermediate result of every stage at debug level.
	DumpStages bool `koanf:"dump_stages"`
}

// Load reads the configuration. path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"separator":    DefaultSeparator,
		"max_contexts": DefaultMaxContexts,
		"workers":      DefaultWorkers,
		"log_level":    DefaultLogLevel,
		"log_format":   DefaultLogFormat,
		"dump_stages":  false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// TRANSFORM_MAX_CONTEXTS -> max_contexts
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	var errs []error

	if c.Separator == "" {
		errs = append(errs, errors.New("separator must not be empty"))
	}

	if c.MaxContexts == 0 {
		errs = append(errs, errors.New("max_contexts must not be 0, use a negative value to disable the cap"))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// EngineOptions converts the settings to engine options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Separator:   c.Separator,
		MaxContexts: c.MaxContexts,
		Workers:     c.Workers,
		DumpStages:  c.DumpStages,
	}
}

// Logger returns a logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return logging.New(c.LogLevel, c.LogFormat, w)
}
