package analyzer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewService(cfg Config, logger *zap.Logger, opts ...Option) *analyzerService {
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter("cloud-steward.analyzer")
	emitted, _ := meter.Int64Counter("steward_recommendations_emitted_total",
		metric.WithDescription("Recommendations produced by analyzer runs"))
	fetchFails, _ := meter.Int64Counter("steward_metric_fetch_failures_total",
		metric.WithDescription("Utilization fetches that failed and were skipped"))

	s := &analyzerService{
		cfg:        cfg,
		retrier:    retry.NewService(cfg.Retry),
		logger:     logger.Named("analyzer"),
		now:        time.Now,
		newID:      uuid.NewString,
		emitted:    emitted,
		fetchFails: fetchFails,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze evaluates every rule against the inventory snapshot. It never
// mutates the inventory. Metric and signal source failures are logged and
// skipped; only context cancellation aborts the run.
func (s *analyzerService) Analyze(ctx context.Context, accountID string, inventory []model.Resource, fetcher service.MetricsFetcher, opts ...RunOption) ([]model.OptimizationRecommendation, error) {
	o := runOptions{rightsizing: s.rightsizing, reservations: s.reservations}
	for _, opt := range opts {
		opt(&o)
	}

	logger := s.logger.With(zap.String("account_id", accountID))
	running := lo.Filter(inventory, func(r model.Resource, _ int) bool {
		return r.Type == model.ResourceCompute && r.IsRunning()
	})

	var recs []model.OptimizationRecommendation

	if fetcher != nil {
		usage := s.fetchUtilization(ctx, logger, running, fetcher)
		for _, r := range running {
			if u, ok := usage[r.ID]; ok {
				recs = append(recs, s.utilizationRules(r, u)...)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range inventory {
		if rec, ok := s.unusedStorage(r); ok {
			recs = append(recs, rec)
		}
	}

	recs = append(recs, s.reservedInstances(ctx, logger, running, o.reservations)...)
	recs = append(recs, s.rightsizingPassThrough(ctx, logger, o.rightsizing)...)

	now := s.now().UTC()
	out := make([]model.OptimizationRecommendation, 0, len(recs))
	for _, rec := range recs {
		if d, ok := o.decisions[rec.Key()]; ok && d.Status.Terminal() && d.Fingerprint == rec.Fingerprint {
			continue
		}
		rec.ID = s.newID()
		rec.AccountID = accountID
		rec.Status = model.RecommendationPending
		rec.CreatedAt = now
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return typeOrder[out[i].Type] < typeOrder[out[j].Type]
		}
		return out[i].ResourceID < out[j].ResourceID
	})

	s.emitted.Add(ctx, int64(len(out)))
	logger.Info("analysis complete",
		zap.Int("resources", len(inventory)),
		zap.Int("recommendations", len(out)),
		zap.Int("suppressed", len(recs)-len(out)))
	return out, nil
}

var typeOrder = map[model.RecommendationType]int{
	model.RecommendationRightsizing:      0,
	model.RecommendationUnderutilized:    1,
	model.RecommendationScaling:          2,
	model.RecommendationUnusedResource:   3,
	model.RecommendationReservedInstance: 4,
}

// fetchUtilization fetches at most MaxResourcesPerRun windows in parallel.
// The most expensive resources are fetched first.
func (s *analyzerService) fetchUtilization(ctx context.Context, logger *zap.Logger, running []model.Resource, fetcher service.MetricsFetcher) map[string]model.Utilization {
	candidates := make([]model.Resource, len(running))
	copy(candidates, running)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CostMonthly != candidates[j].CostMonthly {
			return candidates[i].CostMonthly > candidates[j].CostMonthly
		}
		return candidates[i].ID < candidates[j].ID
	})

	if limit := s.cfg.MaxResourcesPerRun; limit > 0 && len(candidates) > limit {
		logger.Info("metric fetches capped for this run",
			zap.Int("eligible", len(candidates)),
			zap.Int("limit", limit))
		candidates = candidates[:limit]
	}

	var (
		mu    sync.Mutex
		usage = make(map[string]model.Utilization, len(candidates))
	)

	g := new(errgroup.Group)
	g.SetLimit(max(s.cfg.Concurrency, 1))

	for _, r := range candidates {
		g.Go(func() error {
			u, err := retry.Do(ctx, s.retrier, func(ctx context.Context) (*model.Utilization, error) {
				callCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
				defer cancel()

				u, err := fetcher.CPUUtilization(callCtx, r, s.cfg.Window)
				return u, model.ClassifyTransport("fetch utilization", err)
			}, nil)
			if err != nil {
				s.fetchFails.Add(ctx, 1)
				logger.Warn("skipping resource after metric fetch failure",
					zap.String("resource_id", r.ID),
					zap.Error(err))
				return nil
			}
			if u == nil || u.Datapoints == 0 {
				logger.Debug("no utilization datapoints", zap.String("resource_id", r.ID))
				return nil
			}

			mu.Lock()
			usage[r.ID] = *u
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return usage
}
