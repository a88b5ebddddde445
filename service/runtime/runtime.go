package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/elC0mpa/cloud-steward/config"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/analyzer"
	awsadapter "github.com/elC0mpa/cloud-steward/service/aws/adapter"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
	azureadapter "github.com/elC0mpa/cloud-steward/service/azure/adapter"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	gcpadapter "github.com/elC0mpa/cloud-steward/service/gcp/adapter"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/elC0mpa/cloud-steward/service/normalizer"
	"github.com/elC0mpa/cloud-steward/service/notify"
	"github.com/elC0mpa/cloud-steward/service/orchestrator"
	"github.com/elC0mpa/cloud-steward/service/pricing"
	"github.com/elC0mpa/cloud-steward/service/reconcile"
	"github.com/elC0mpa/cloud-steward/service/spend"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Runtime is the wired set of services shared by the CLI and the MCP server
type Runtime struct {
	Config       *config.Config
	Store        inventory.Store
	Orchestrator orchestrator.OrchestratorService
	Spend        spend.SpendService
	Dispatcher   notify.DispatcherService

	logger  *zap.Logger
	closers []func() error
}

// Options overrides the pieces tests and embedders replace
type Options struct {
	// Adapters replaces the AWS, Azure and GCP adapters
	Adapters []service.ProviderAdapter

	// NotifyOptions customise the dispatcher
	NotifyOptions []notify.Option
}

// New opens the store and wires every service from cfg
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := inventory.Open(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory: %w", err)
	}
	store := inventory.NewService(db, logger)

	rt := &Runtime{
		Config:  cfg,
		Store:   store,
		logger:  logger,
		closers: []func() error{store.Close},
	}

	adapters := opts.Adapters
	if adapters == nil {
		collector := discovery.NewService(cfg.Discovery, logger)
		gcp := gcpadapter.NewAdapter(gcpadapter.NewClientFactory(), collector, logger)
		rt.closers = append(rt.closers, gcp.Close)
		adapters = []service.ProviderAdapter{
			awsadapter.NewAdapter(awsadapter.NewClientFactory(awsconfig.NewService()), collector, logger),
			azureadapter.NewAdapter(azureadapter.NewClientFactory(), collector, logger),
			gcp,
		}
	}

	rt.Orchestrator = orchestrator.NewService(
		adapters,
		store,
		normalizer.NewService(pricing.NewService(pricing.DefaultTable()), logger),
		reconcile.NewService(store, logger),
		analyzer.NewService(cfg.Analyzer, logger),
		logger,
		orchestrator.WithConfig(cfg.Orchestrator),
	)
	rt.Spend = spend.NewService(cfg.Spend, store, logger)
	rt.Dispatcher = notify.NewService(cfg.Notify, logger, opts.NotifyOptions...)

	if err := rt.registerAccounts(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// registerAccounts saves configured accounts that the store does not know
// yet. Known accounts keep their recorded sync status.
func (r *Runtime) registerAccounts(ctx context.Context) error {
	for _, account := range r.Config.CloudAccounts() {
		existing, err := r.Store.GetAccount(ctx, account.ID)
		switch {
		case errors.Is(err, inventory.ErrNotFound):
		case err != nil:
			return err
		default:
			account.Status = existing.Status
			account.LastSyncedAt = existing.LastSyncedAt
			account.ErrorMessage = existing.ErrorMessage
		}
		if err := r.Store.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to register account %s: %w", account.ID, err)
		}
	}
	return nil
}

// AccountIDs lists every registered account
func (r *Runtime) AccountIDs(ctx context.Context) ([]string, error) {
	accounts, err := r.Store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// Close releases the store and provider clients
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	_ = r.logger.Sync()
	return errors.Join(errs...)
}

// NewLogger builds the zap logger described by cfg
func NewLogger(cfg config.Logging) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
