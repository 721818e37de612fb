package filecache

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Default tuning values.
const (
	DefaultScheduleDelay       = 100 * time.Millisecond
	DefaultMaxConcurrentCloses = 4
)

// Config holds the construction-time limits of a Cache.
//
// The cache keeps at least MinElements idle resources, starts a background
// eviction pass once SoftLimit is exceeded and evicts synchronously inside
// Acquire once HardLimit is exceeded.
type Config struct {
	// MinElements is the number of resources an eviction pass never goes below.
	MinElements int `env:"MIN_ELEMENTS" envDefault:"10"`

	// SoftLimit triggers an asynchronous eviction pass when exceeded.
	SoftLimit int `env:"SOFT_LIMIT" envDefault:"20"`

	// HardLimit triggers a synchronous eviction pass when exceeded.
	// If 0, there is no hard limit.
	HardLimit int `env:"HARD_LIMIT" envDefault:"0"`

	// Period is the interval of the periodic eviction pass.
	// If 0, no periodic pass runs.
	Period time.Duration `env:"PERIOD" envDefault:"0s"`

	// ScheduleDelay is how long a soft-limit pass waits before running, so
	// bursts of registrations are handled by one pass.
	// If 0, defaults to DefaultScheduleDelay.
	ScheduleDelay time.Duration `env:"SCHEDULE_DELAY" envDefault:"100ms"`

	// MaxConcurrentCloses bounds how many resources are closed in parallel.
	// If 0, defaults to DefaultMaxConcurrentCloses.
	MaxConcurrentCloses int `env:"MAX_CONCURRENT_CLOSES" envDefault:"4"`

	// OpenRateLimit is the maximum number of factory opens per second.
	// If 0, unlimited.
	OpenRateLimit float64 `env:"OPEN_RATE_LIMIT" envDefault:"0"`
}

// DefaultConfig returns the limits used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		MinElements:         10,
		SoftLimit:           20,
		ScheduleDelay:       DefaultScheduleDelay,
		MaxConcurrentCloses: DefaultMaxConcurrentCloses,
	}
}

// Validate checks that all values are non-negative and that
// MinElements <= SoftLimit <= HardLimit when HardLimit is set.
func (c Config) Validate() error {
	switch {
	case c.MinElements < 0:
		return &ErrInvalidConfig{Field: "MinElements", Reason: "must not be negative"}
	case c.SoftLimit < 0:
		return &ErrInvalidConfig{Field: "SoftLimit", Reason: "must not be negative"}
	case c.HardLimit < 0:
		return &ErrInvalidConfig{Field: "HardLimit", Reason: "must not be negative"}
	case c.Period < 0:
		return &ErrInvalidConfig{Field: "Period", Reason: "must not be negative"}
	case c.ScheduleDelay < 0:
		return &ErrInvalidConfig{Field: "ScheduleDelay", Reason: "must not be negative"}
	case c.MaxConcurrentCloses < 0:
		return &ErrInvalidConfig{Field: "MaxConcurrentCloses", Reason: "must not be negative"}
	case c.OpenRateLimit < 0:
		return &ErrInvalidConfig{Field: "OpenRateLimit", Reason: "must not be negative"}
	case c.MinElements > c.SoftLimit:
		return &ErrInvalidConfig{
			Field:  "MinElements",
			Reason: fmt.Sprintf("(%d) must not exceed SoftLimit (%d)", c.MinElements, c.SoftLimit),
		}
	case c.HardLimit > 0 && c.SoftLimit > c.HardLimit:
		return &ErrInvalidConfig{
			Field:  "SoftLimit",
			Reason: fmt.Sprintf("(%d) must not exceed HardLimit (%d)", c.SoftLimit, c.HardLimit),
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ScheduleDelay == 0 {
		c.ScheduleDelay = DefaultScheduleDelay
	}
	if c.MaxConcurrentCloses == 0 {
		c.MaxConcurrentCloses = DefaultMaxConcurrentCloses
	}
	return c
}

// EnvPrefix is prepended to every environment variable read by ConfigFromEnv.
const EnvPrefix = "FILECACHE_"

// ConfigFromEnv loads a Config from FILECACHE_* environment variables.
//
// A .env file in the working directory (or the given files) is loaded
// first if present; variables already set in the environment win.
//
//	FILECACHE_MIN_ELEMENTS=10
//	FILECACHE_SOFT_LIMIT=20
//	FILECACHE_HARD_LIMIT=100
//	FILECACHE_PERIOD=1m
func ConfigFromEnv(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
