package orchestrator

import (
	"context"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/analyzer"
	"github.com/elC0mpa/cloud-steward/service/normalizer"
	"github.com/elC0mpa/cloud-steward/service/reconcile"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config bounds account fan-out
type Config struct {
	// AccountConcurrency caps the accounts synced at once by SyncAll
	AccountConcurrency int `mapstructure:"account_concurrency" validate:"gte=1"`

	// StatusWriteTimeout bounds the account status write-back, which runs
	// even when the sync context was cancelled
	StatusWriteTimeout time.Duration `mapstructure:"status_write_timeout" validate:"gt=0"`

	// RunTimeout bounds one shared sync run. The run is detached from the
	// cancellation of whichever caller started it.
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gt=0"`
}

// DefaultConfig returns the orchestrator defaults
func DefaultConfig() Config {
	return Config{
		AccountConcurrency: 4,
		StatusWriteTimeout: 10 * time.Second,
		RunTimeout:         15 * time.Minute,
	}
}

// Store is the persistence the orchestrator reads and writes
type Store interface {
	service.InventoryStore
	service.AccountStore
	service.RecommendationStore
}

type orchestratorService struct {
	cfg        Config
	adapters   map[model.Provider]service.ProviderAdapter
	store      Store
	normalizer normalizer.NormalizerService
	reconciler reconcile.ReconcileService
	analyzer   analyzer.AnalyzerService
	validate   *validator.Validate
	group      singleflight.Group
	tracer     trace.Tracer
	logger     *zap.Logger
	now        func() time.Time

	syncs metric.Int64Counter
}

// OrchestratorService drives discovery, reconciliation and analysis per account
type OrchestratorService interface {
	Sync(ctx context.Context, req model.SyncRequest) (*model.SyncResult, error)
	SyncAll(ctx context.Context, accountIDs []string) ([]*model.SyncResult, error)
	Analyze(ctx context.Context, accountID string) ([]model.OptimizationRecommendation, error)
	SetRecommendationStatus(ctx context.Context, id string, status model.RecommendationStatus) (*model.OptimizationRecommendation, error)
	Sources(ctx context.Context, accountID string) (*model.CloudAccount, *service.ProviderSources, error)
}

// Option customises the orchestrator
type Option func(*orchestratorService)

// WithConfig replaces DefaultConfig
func WithConfig(cfg Config) Option {
	return func(s *orchestratorService) { s.cfg = cfg }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *orchestratorService) { s.now = now }
}
