package analyzer

import (
	"context"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Config holds the rule thresholds. CPU values are percentages.
type Config struct {
	UnderutilizedAvg  float64 `mapstructure:"underutilized_avg" validate:"gt=0,lte=100"`
	UnderutilizedMax  float64 `mapstructure:"underutilized_max" validate:"gt=0,lte=100"`
	HighConfidenceAvg float64 `mapstructure:"high_confidence_avg" validate:"gte=0,lte=100"`

	ScalingAvg    float64 `mapstructure:"scaling_avg" validate:"gt=0,lte=100"`
	ScalingMax    float64 `mapstructure:"scaling_max" validate:"gt=0,lte=100"`
	ScalingFactor float64 `mapstructure:"scaling_factor" validate:"gt=1"`

	ReservedSavingsRate float64 `mapstructure:"reserved_savings_rate" validate:"gt=0,lt=1"`
	ReservedMinGroup    int     `mapstructure:"reserved_min_group" validate:"gte=2"`

	Window time.Duration `mapstructure:"window" validate:"gt=0"`

	// MaxResourcesPerRun caps metric fetches per run to respect the metrics
	// source's rate limits
	MaxResourcesPerRun int           `mapstructure:"max_resources_per_run" validate:"gte=1"`
	Concurrency        int           `mapstructure:"concurrency" validate:"gte=1"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`

	Retry retry.Config `mapstructure:"retry"`
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		UnderutilizedAvg:    10,
		UnderutilizedMax:    50,
		HighConfidenceAvg:   5,
		ScalingAvg:          80,
		ScalingMax:          95,
		ScalingFactor:       1.5,
		ReservedSavingsRate: 0.30,
		ReservedMinGroup:    2,
		Window:              14 * 24 * time.Hour,
		MaxResourcesPerRun:  100,
		Concurrency:         8,
		FetchTimeout:        30 * time.Second,
		Retry:               retry.DefaultConfig(),
	}
}

type analyzerService struct {
	cfg          Config
	rightsizing  service.RightsizingSource
	reservations service.ReservationSource
	retrier      retry.Retrier
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string

	emitted    metric.Int64Counter
	fetchFails metric.Int64Counter
}

// AnalyzerService turns an inventory snapshot plus utilization metrics into recommendations
type AnalyzerService interface {
	Analyze(ctx context.Context, accountID string, inventory []model.Resource, fetcher service.MetricsFetcher, opts ...RunOption) ([]model.OptimizationRecommendation, error)
}

// Option customises the analyzer
type Option func(*analyzerService)

// WithRightsizingSource enables rightsizing pass-through
func WithRightsizingSource(src service.RightsizingSource) Option {
	return func(s *analyzerService) { s.rightsizing = src }
}

// WithReservationSource subtracts already reserved capacity from reserved-instance groups
func WithReservationSource(src service.ReservationSource) Option {
	return func(s *analyzerService) { s.reservations = src }
}

// WithRetryOptions customises metric fetch retries
func WithRetryOptions(opts ...retry.Option) Option {
	return func(s *analyzerService) { s.retrier = retry.NewService(s.cfg.Retry, opts...) }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *analyzerService) { s.now = now }
}

type runOptions struct {
	decisions    map[string]model.Decision
	rightsizing  service.RightsizingSource
	reservations service.ReservationSource
}

// RunOption customises one analyzer run
type RunOption func(*runOptions)

// WithDecisions suppresses recommendations whose (type, resource) pair already
// has a terminal decision taken on the same fingerprint
func WithDecisions(decisions map[string]model.Decision) RunOption {
	return func(o *runOptions) { o.decisions = decisions }
}

// WithSources overrides the constructor's signal sources for one run. Nil
// sources disable the matching rule.
func WithSources(rightsizing service.RightsizingSource, reservations service.ReservationSource) RunOption {
	return func(o *runOptions) {
		o.rightsizing = rightsizing
		o.reservations = reservations
	}
}
