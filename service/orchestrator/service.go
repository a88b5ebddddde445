package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/analyzer"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/elC0mpa/cloud-steward/service/normalizer"
	"github.com/elC0mpa/cloud-steward/service/reconcile"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

func NewService(adapters []service.ProviderAdapter, store Store, norm normalizer.NormalizerService, reconciler reconcile.ReconcileService, az analyzer.AnalyzerService, logger *zap.Logger, opts ...Option) *orchestratorService {
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter("cloud-steward.orchestrator")
	syncs, _ := meter.Int64Counter("steward_syncs_total",
		metric.WithDescription("Account syncs by resulting status"))

	byProvider := make(map[model.Provider]service.ProviderAdapter, len(adapters))
	for _, a := range adapters {
		byProvider[a.Provider()] = a
	}

	s := &orchestratorService{
		cfg:        DefaultConfig(),
		adapters:   byProvider,
		store:      store,
		normalizer: norm,
		reconciler: reconciler,
		analyzer:   az,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		tracer:     otel.Tracer("cloud-steward.orchestrator"),
		logger:     logger.Named("orchestrator"),
		now:        time.Now,
		syncs:      syncs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync discovers, normalizes and reconciles one account, then records the
// outcome on the account. Concurrent calls for the same account share one run.
// A caller whose ctx ends stops waiting; the run continues for the others
// until it completes or RunTimeout expires.
//
// A result is returned whenever the account could be resolved, even when the
// returned error is non-nil.
func (s *orchestratorService) Sync(ctx context.Context, req model.SyncRequest) (*model.SyncResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, model.NewValidationError("sync request", err.Error())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan(req.AccountID, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RunTimeout)
		defer cancel()
		return s.sync(runCtx, req)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.logger.Debug("caller left in-flight sync", zap.String("account_id", req.AccountID))
		return nil, ctx.Err()
	}
	if res.Shared {
		s.logger.Debug("joined in-flight sync", zap.String("account_id", req.AccountID))
	}

	err := res.Err
	result, _ := res.Val.(*model.SyncResult)
	if result == nil {
		return nil, err
	}
	copied := *result
	copied.Errors = slices.Clone(result.Errors)
	return &copied, err
}

func (s *orchestratorService) sync(ctx context.Context, req model.SyncRequest) (*model.SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "steward.sync", trace.WithAttributes(attribute.String("account_id", req.AccountID)))
	defer span.End()

	logger := s.logger.With(zap.String("account_id", req.AccountID))

	account, adapter, err := s.resolve(ctx, req.AccountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("provider", string(account.Provider)))

	categories := req.Categories
	if len(categories) == 0 {
		categories = model.AllCategories
	}

	result := &model.SyncResult{
		AccountID: account.ID,
		Provider:  account.Provider,
		Errors:    []string{},
		StartedAt: s.now().UTC(),
	}

	discovered, err := adapter.ListResources(ctx, account.Credentials, categories)
	if err != nil {
		logger.Error("discovery aborted", zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		return s.finish(ctx, span, result, model.AccountError, err)
	}

	result.Discovered = len(discovered.Records)
	result.Partial = discovered.Partial()
	for _, catErr := range discovered.Errors {
		result.Errors = append(result.Errors, catErr.Error())
	}

	batch, normErrs := s.normalizer.NormalizeBatch(account.ID, discovered.Records)
	result.Skipped = len(normErrs)
	for _, e := range normErrs {
		result.Errors = append(result.Errors, e.Error())
	}

	if result.Partial && len(batch) == 0 {
		logger.Warn("every category failed, inventory left untouched",
			zap.Int("failed_categories", len(discovered.Errors)))
		return s.finish(ctx, span, result, model.AccountError, nil)
	}

	var reconcileOpts []reconcile.RunOption
	if result.Partial {
		reconcileOpts = append(reconcileOpts, reconcile.WithoutSweep())
	}

	reconciled, err := s.reconciler.Reconcile(ctx, account.ID, batch, reconcileOpts...)
	if reconciled != nil {
		result.Inserted = reconciled.Inserted
		result.Updated = reconciled.Updated
		result.Deleted = reconciled.Deleted
		result.Swept = reconciled.Swept
	}
	if err != nil {
		if reconcile.IsInProgress(err) {
			return nil, err
		}
		result.Errors = append(result.Errors, err.Error())
		var partial *model.PartialBatchError
		if errors.As(err, &partial) {
			return s.finish(ctx, span, result, model.AccountError, nil)
		}
		return s.finish(ctx, span, result, model.AccountError, err)
	}

	status := model.AccountConnected
	if result.Partial {
		status = model.AccountError
	}
	return s.finish(ctx, span, result, status, nil)
}

// finish writes the account status even when ctx has been cancelled
func (s *orchestratorService) finish(ctx context.Context, span trace.Span, result *model.SyncResult, status model.AccountStatus, cause error) (*model.SyncResult, error) {
	result.Status = status
	result.FinishedAt = s.now().UTC()

	message := ""
	if status == model.AccountError && len(result.Errors) > 0 {
		message = result.Errors[0]
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StatusWriteTimeout)
	defer cancel()
	if err := s.store.UpdateSyncStatus(writeCtx, result.AccountID, status, result.FinishedAt, message); err != nil {
		s.logger.Error("failed to record sync status",
			zap.String("account_id", result.AccountID),
			zap.Error(err))
		if cause == nil {
			cause = err
		}
	}

	s.syncs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", string(result.Provider)),
		attribute.String("status", string(status))))

	span.SetAttributes(
		attribute.String("status", string(status)),
		attribute.Int("discovered", result.Discovered),
		attribute.Bool("partial", result.Partial))
	if cause != nil {
		span.RecordError(cause)
		span.SetStatus(codes.Error, cause.Error())
	}

	s.logger.Info("sync finished",
		zap.String("account_id", result.AccountID),
		zap.String("status", string(status)),
		zap.Int("discovered", result.Discovered),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Bool("partial", result.Partial))
	return result, cause
}

// SyncAll syncs every account with bounded concurrency. Results keep the order
// of accountIDs; an account that could not be resolved has a nil entry.
func (s *orchestratorService) SyncAll(ctx context.Context, accountIDs []string) ([]*model.SyncResult, error) {
	results := make([]*model.SyncResult, len(accountIDs))
	errs := make([]error, len(accountIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.AccountConcurrency)
	for i, id := range accountIDs {
		g.Go(func() error {
			result, err := s.Sync(gctx, model.SyncRequest{AccountID: id})
			results[i] = result
			if err != nil {
				errs[i] = fmt.Errorf("account %s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// Analyze runs the analyzer over the stored inventory of accountID and
// persists the recommendations. Missing provider sources only disable the
// rules that need them.
func (s *orchestratorService) Analyze(ctx context.Context, accountID string) ([]model.OptimizationRecommendation, error) {
	ctx, span := s.tracer.Start(ctx, "steward.analyze", trace.WithAttributes(attribute.String("account_id", accountID)))
	defer span.End()

	account, sources, err := s.Sources(ctx, accountID)
	if err != nil && account == nil {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("provider sources unavailable, analyzing without them",
			zap.String("account_id", accountID),
			zap.Error(err))
		sources = &service.ProviderSources{}
	}

	resources, err := s.store.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	decisions, err := s.store.Decisions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}

	recs, err := s.analyzer.Analyze(ctx, accountID, resources, sources.Metrics,
		analyzer.WithDecisions(decisions),
		analyzer.WithSources(sources.Rightsizing, sources.Reservations))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to analyze %s: %w", accountID, err)
	}

	if err := s.store.SaveRecommendations(ctx, accountID, recs); err != nil {
		return nil, fmt.Errorf("failed to save recommendations: %w", err)
	}

	span.SetAttributes(attribute.Int("recommendations", len(recs)))
	return recs, nil
}

func (s *orchestratorService) SetRecommendationStatus(ctx context.Context, id string, status model.RecommendationStatus) (*model.OptimizationRecommendation, error) {
	if id == "" {
		return nil, model.NewValidationError("id", "required")
	}
	if _, ok := model.ParseRecommendationStatus(string(status)); !ok {
		return nil, model.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	rec, err := s.store.SetRecommendationStatus(ctx, id, status)
	if errors.Is(err, inventory.ErrNotFound) {
		return nil, model.NewValidationError("id", err.Error())
	}
	return rec, err
}

// Sources resolves the account and builds its provider sources. The account
// is returned whenever it exists, even if the sources could not be built.
func (s *orchestratorService) Sources(ctx context.Context, accountID string) (*model.CloudAccount, *service.ProviderSources, error) {
	account, adapter, err := s.resolve(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	sources, err := adapter.Sources(ctx, account.Credentials)
	if err != nil {
		return account, nil, fmt.Errorf("failed to build %s sources: %w", account.Provider, err)
	}
	return account, sources, nil
}

func (s *orchestratorService) resolve(ctx context.Context, accountID string) (*model.CloudAccount, service.ProviderAdapter, error) {
	if accountID == "" {
		return nil, nil, model.NewValidationError("accountId", "required")
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, inventory.ErrNotFound) {
		return nil, nil, model.NewValidationError("accountId", fmt.Sprintf("unknown account %s", accountID))
	}
	if err != nil {
		return nil, nil, err
	}

	adapter, ok := s.adapters[account.Provider]
	if !ok {
		return nil, nil, model.NewValidationError("provider", fmt.Sprintf("no adapter registered for %q", account.Provider))
	}
	return account, adapter, nil
}
