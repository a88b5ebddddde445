package spend

import (
	"context"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"go.uber.org/zap"
)

// Config of the spend report
type Config struct {
	// TopServices is the number of billed services listed in a report
	TopServices int `mapstructure:"top_services" validate:"gte=1"`

	// HistoryMonths is the number of closed months charted by History
	HistoryMonths int `mapstructure:"history_months" validate:"gte=1,lte=12"`

	Retry retry.Config `mapstructure:"retry"`
}

// DefaultConfig returns the report defaults
func DefaultConfig() Config {
	return Config{
		TopServices:   5,
		HistoryMonths: 6,
		Retry:         retry.DefaultConfig(),
	}
}

type spendService struct {
	cfg     Config
	store   service.InventoryStore
	retrier retry.Retrier
	logger  *zap.Logger
	now     func() time.Time
}

// SpendService compares the estimated cost of the inventory with billed spend
type SpendService interface {
	Report(ctx context.Context, accountID string, source service.BillingSource) (*model.SpendReport, error)
	History(ctx context.Context, source service.SpendHistorySource) ([]model.CostInfo, error)
}

// Option customises the spend service
type Option func(*spendService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *spendService) { s.now = now }
}

// WithRetryOptions customises billing query retries
func WithRetryOptions(opts ...retry.Option) Option {
	return func(s *spendService) { s.retrier = retry.NewService(s.cfg.Retry, opts...) }
}
