package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	envPrefix     = "WAITCAST_"
	envConfigFile = "WAITCAST_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WAITCAST_CONFIG is set
//  3. env (prefix WAITCAST_; WAITCAST_GRID__MAX_DEPTH reaches grid.max_depth)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Map env keys like WAITCAST_TRAIN_FRACTION -> train_fraction (flat keys)
	// and WAITCAST_GRID__MAX_DEPTH -> grid.max_depth (double underscore nests).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	resetOverriddenSlices(k, &cfg)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resetOverriddenSlices drops default slices whose key is set by a higher
// layer, so a shorter override replaces the default instead of patching it.
func resetOverriddenSlices(k *koanf.Koanf, cfg *Config) {
	if k.Exists("grid.models") {
		cfg.Grid.Models = nil
	}
	if k.Exists("grid.n_estimators") {
		cfg.Grid.NEstimators = nil
	}
	if k.Exists("grid.learning_rate") {
		cfg.Grid.LearningRate = nil
	}
	if k.Exists("grid.max_depth") {
		cfg.Grid.MaxDepth = nil
	}
	if k.Exists("grid.min_samples_leaf") {
		cfg.Grid.MinSamplesLeaf = nil
	}
	if k.Exists("grid.alpha") {
		cfg.Grid.Alpha = nil
	}
}

// Validate checks the semantic constraints of every field. Enumerated
// fields are normalized to lower case first.
func (c *Config) Validate() error {
	c.OrderPolicy = normalize(c.OrderPolicy)
	c.ScoringMetric = normalize(c.ScoringMetric)
	c.LogFormat = normalize(c.LogFormat)

	switch {
	case strings.TrimSpace(c.DataPath) == "":
		return invalid("data_path must not be empty")
	case c.TrainFraction <= 0 || c.TrainFraction >= 1:
		return invalid("train_fraction must be in (0, 1), got %v", c.TrainFraction)
	case c.NSplits < 2:
		return invalid("n_splits must be at least 2, got %d", c.NSplits)
	case c.LowerPercentile < 0 || c.UpperPercentile > 100 || c.LowerPercentile >= c.UpperPercentile:
		return invalid("percentile bounds must satisfy 0 <= lower < upper <= 100, got %v/%v", c.LowerPercentile, c.UpperPercentile)
	case c.RollingWindow < 1:
		return invalid("rolling_window must be positive, got %d", c.RollingWindow)
	case c.ArrivalWindowMinutes < 1 || c.TrafficWindowMinutes < 1:
		return invalid("arrival and traffic windows must be positive")
	case c.EWMAAlpha <= 0 || c.EWMAAlpha > 1:
		return invalid("ewma_alpha must be in (0, 1], got %v", c.EWMAAlpha)
	case c.MinRows < 1:
		return invalid("min_rows must be positive, got %d", c.MinRows)
	case c.MAPEFloor <= 0:
		return invalid("mape_floor must be positive, got %v", c.MAPEFloor)
	case len([]rune(c.Delimiter)) != 1:
		return invalid("delimiter must be a single character, got %q", c.Delimiter)
	}

	if _, err := c.OpenOffset(); err != nil {
		return err
	}
	if !oneOf(c.OrderPolicy, "repair", "drop") {
		return invalid("unknown order_policy %q", c.OrderPolicy)
	}
	if !oneOf(c.ScoringMetric, "mae", "rmse", "mape") {
		return invalid("unknown scoring_metric %q", c.ScoringMetric)
	}
	if !oneOf(c.LogFormat, "text", "json") {
		return invalid("unknown log_format %q", c.LogFormat)
	}
	if len(c.Grid.Models) == 0 {
		return invalid("grid.models must list at least one model")
	}
	return nil
}

// OpenOffset parses BranchOpen into an offset from midnight.
func (c *Config) OpenOffset() (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.BranchOpen))
	if err != nil {
		return 0, invalid("branch_open must be HH:MM, got %q", c.BranchOpen)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r := []rune(c.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func oneOf(v string, allowed ...string) bool {
	return slices.Contains(allowed, v)
}
