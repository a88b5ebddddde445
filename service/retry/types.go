package retry

import (
	"context"
	"errors"
	"time"
)

// Config configures exponential backoff with additive jitter.
//
// The wait before attempt n+1 is min(BaseDelay*Multiplier^(n-1), MaxDelay)
// plus a random duration in [0, JitterCeiling).
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int `mapstructure:"max_attempts"`

	BaseDelay  time.Duration `mapstructure:"base_delay"`
	Multiplier float64       `mapstructure:"multiplier"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`

	// JitterCeiling bounds the random delay added to every wait. Zero disables jitter.
	JitterCeiling time.Duration `mapstructure:"jitter_ceiling"`
}

// DefaultConfig returns the defaults used by discovery, metrics and dispatch
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseDelay:     500 * time.Millisecond,
		Multiplier:    2.0,
		MaxDelay:      30 * time.Second,
		JitterCeiling: 250 * time.Millisecond,
	}
}

var errInvalidConfig = errors.New("invalid retry config")

// Validate checks if the retry configuration is usable
func (c Config) Validate() error {
	switch {
	case c.MaxAttempts < 1:
		return errInvalidConfig
	case c.BaseDelay < 0:
		return errInvalidConfig
	case c.MaxDelay < c.BaseDelay:
		return errInvalidConfig
	case c.Multiplier < 1.0:
		return errInvalidConfig
	case c.JitterCeiling < 0:
		return errInvalidConfig
	}
	return nil
}

// ShouldRetryFunc decides whether an error is worth another attempt
type ShouldRetryFunc func(err error) bool

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

type service struct {
	cfg    Config
	sleep  SleepFunc
	jitter func() float64
}

// Retrier executes operations under the configured backoff policy
type Retrier interface {
	Config() Config
	Run(ctx context.Context, op func(ctx context.Context) error, shouldRetry ShouldRetryFunc) error
	wait(ctx context.Context, attempt int) error
}

// Option customises a Retrier
type Option func(*service)

// WithSleep replaces the wait function. Tests use it to record delays.
func WithSleep(fn SleepFunc) Option {
	return func(s *service) { s.sleep = fn }
}

// WithJitterSource replaces the [0,1) random source
func WithJitterSource(fn func() float64) Option {
	return func(s *service) { s.jitter = fn }
}
