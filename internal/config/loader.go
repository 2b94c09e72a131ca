package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "VITALRACE_"
	envConfig = "VITALRACE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VITALRACE_CONFIG is set
//  3. env (prefix VITALRACE_)
//
// Nested keys use a double underscore in env names, e.g.
// VITALRACE_CRITICAL_THRESHOLDS__HR=120 or VITALRACE_GROUPS__EXAM1=s1,s2.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PointCount < 2:
		return fmt.Errorf("%w: point_count must be at least 2, got %d", ErrInvalidConfig, c.PointCount)
	case c.DurationMS <= 0:
		return fmt.Errorf("%w: duration_ms must be positive, got %d", ErrInvalidConfig, c.DurationMS)
	case c.FrameIntervalMS <= 0:
		return fmt.Errorf("%w: frame_interval_ms must be positive, got %d", ErrInvalidConfig, c.FrameIntervalMS)
	}
	if err := c.Window().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
