package spend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func NewService(cfg Config, store service.InventoryStore, logger *zap.Logger, opts ...Option) *spendService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &spendService{
		cfg:     cfg,
		store:   store,
		retrier: retry.NewService(cfg.Retry),
		logger:  logger.Named("spend"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report sums the estimated monthly cost of the active inventory and sets it
// against the billed month-to-date spend projected to the whole month.
// Variance is estimated minus projected; a positive value means the
// inventory is priced above what the bill is heading for.
func (s *spendService) Report(ctx context.Context, accountID string, source service.BillingSource) (*model.SpendReport, error) {
	if accountID == "" {
		return nil, model.NewValidationError("accountId", "required")
	}
	if source == nil {
		return nil, model.NewValidationError("billing", "provider has no billing source configured")
	}

	resources, err := s.store.List(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	active := lo.Filter(resources, func(r model.Resource, _ int) bool {
		return r.SyncState == model.SyncActive
	})

	billed, err := retry.Do(ctx, s.retrier, source.MonthToDate, model.IsRetryable)
	if err != nil {
		return nil, fmt.Errorf("failed to get billed spend: %w", err)
	}

	now := s.now().UTC()
	report := &model.SpendReport{
		AccountID:        accountID,
		Provider:         billed.Provider,
		Resources:        len(active),
		EstimatedMonthly: round(lo.SumBy(active, func(r model.Resource) float64 { return r.CostMonthly })),
		BilledToDate:     round(billed.Total),
		ProjectedMonthly: round(project(billed.Total, billed.Start, now)),
		Currency:         billed.Currency,
		TopServices:      topServices(billed.ByService, s.cfg.TopServices),
		GeneratedAt:      now,
	}
	report.Variance = round(report.EstimatedMonthly - report.ProjectedMonthly)
	if report.ProjectedMonthly > 0 {
		report.VariancePercent = round(report.Variance / report.ProjectedMonthly * 100)
	}

	s.logger.Info("spend report",
		zap.String("account_id", accountID),
		zap.Float64("estimated", report.EstimatedMonthly),
		zap.Float64("projected", report.ProjectedMonthly),
		zap.Float64("variance", report.Variance))
	return report, nil
}

// History returns the closed monthly totals charted next to a report
func (s *spendService) History(ctx context.Context, source service.SpendHistorySource) ([]model.CostInfo, error) {
	if source == nil {
		return nil, model.NewValidationError("billing", "provider has no spend history source configured")
	}
	months, err := retry.Do(ctx, s.retrier, func(ctx context.Context) ([]model.CostInfo, error) {
		return source.MonthlyTotals(ctx, s.cfg.HistoryMonths)
	}, model.IsRetryable)
	if err != nil {
		return nil, fmt.Errorf("failed to get spend history: %w", err)
	}
	return months, nil
}

// project scales month-to-date spend to the full calendar month of start.
// At least one day counts as elapsed so early-month projections stay bounded.
func project(toDate float64, start, now time.Time) float64 {
	if start.IsZero() {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	monthEnd := start.AddDate(0, 1, 0)
	total := monthEnd.Sub(start).Hours() / 24
	elapsed := math.Max(now.Sub(start).Hours()/24, 1)
	if elapsed >= total {
		return toDate
	}
	return toDate * total / elapsed
}

func topServices(costs model.CostInfo, n int) []model.ServiceCost {
	services := make([]model.ServiceCost, 0, len(costs.CostGroup))
	for name, group := range costs.CostGroup {
		if group.Amount <= 0 {
			continue
		}
		services = append(services, model.ServiceCost{Name: name, Amount: round(group.Amount), Unit: group.Unit})
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].Amount != services[j].Amount {
			return services[i].Amount > services[j].Amount
		}
		return services[i].Name < services[j].Name
	})
	if len(services) > n {
		services = services[:n]
	}
	return services
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
