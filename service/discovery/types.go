package discovery

import (
	"context"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"go.uber.org/zap"
)

// Config bounds category fan-out
type Config struct {
	// Concurrency caps the categories fetched at once for one account
	Concurrency int `mapstructure:"concurrency" validate:"gte=1"`

	// CallTimeout bounds each attempt of a category fetch
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0"`

	Retry retry.Config `mapstructure:"retry"`
}

// DefaultConfig returns the collector defaults
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		CallTimeout: 60 * time.Second,
		Retry:       retry.DefaultConfig(),
	}
}

// Fetcher lists the raw records of one category
type Fetcher func(ctx context.Context) ([]model.RawRecord, error)

// Classifier maps a provider SDK error onto the model error taxonomy
type Classifier func(op string, err error) error

type service struct {
	cfg     Config
	retrier retry.Retrier
	logger  *zap.Logger
}

// CollectorService runs category fetchers with failure isolation
type CollectorService interface {
	Collect(ctx context.Context, categories []model.Category, fetchers map[model.Category]Fetcher, classify Classifier) *model.DiscoveryResult
}
