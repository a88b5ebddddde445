package service

import (
	"context"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
)

// IdentityService provides cloud account/project identity information
type IdentityService interface {
	GetAccountInfo(ctx context.Context) (*model.AccountInfo, error)
}

// DiscoveryAdapter lists the resources of one provider account. A failed
// category is reported in DiscoveryResult.Errors; the returned error is
// reserved for failures that abort the whole listing, such as bad credentials.
type DiscoveryAdapter interface {
	Provider() model.Provider
	ListResources(ctx context.Context, creds model.Credentials, categories []model.Category) (*model.DiscoveryResult, error)
}

// CostEstimator prices a resource from its kind, size label and an extra
// quantity (GB for per-GB kinds)
type CostEstimator interface {
	Estimate(kind, size string, extra float64) float64
}

// InventoryStore is the persisted inventory used by reconciliation
type InventoryStore interface {
	Upsert(ctx context.Context, resource model.Resource) (inserted bool, err error)
	MarkPendingStale(ctx context.Context, accountID string) error
	DeleteWherePendingStale(ctx context.Context, accountID string) (int, error)
	List(ctx context.Context, accountID string) ([]model.Resource, error)
}

// AccountStore records the outcome of each sync on the account
type AccountStore interface {
	GetAccount(ctx context.Context, accountID string) (*model.CloudAccount, error)
	UpdateSyncStatus(ctx context.Context, accountID string, status model.AccountStatus, lastSyncedAt time.Time, errorMessage string) error
}

// RecommendationStore persists analyzer output and external decisions
type RecommendationStore interface {
	SaveRecommendations(ctx context.Context, accountID string, recs []model.OptimizationRecommendation) error
	ListRecommendations(ctx context.Context, accountID string) ([]model.OptimizationRecommendation, error)
	SetRecommendationStatus(ctx context.Context, id string, status model.RecommendationStatus) (*model.OptimizationRecommendation, error)
	Decisions(ctx context.Context, accountID string) (map[string]model.Decision, error)
}

// MetricsFetcher returns CPU utilization for a compute resource over a window
type MetricsFetcher interface {
	CPUUtilization(ctx context.Context, resource model.Resource, window time.Duration) (*model.Utilization, error)
}

// RightsizingSource provides provider-native rightsizing suggestions
type RightsizingSource interface {
	RightsizingSignals(ctx context.Context) ([]model.RightsizingSignal, error)
}

// ReservationSource reports active reserved capacity as size label -> instance count
type ReservationSource interface {
	ActiveReservations(ctx context.Context) (map[string]int, error)
}

// BillingSource provides billed month-to-date spend
type BillingSource interface {
	MonthToDate(ctx context.Context) (*model.SpendSummary, error)
}

// SpendHistorySource provides closed monthly totals, oldest first
type SpendHistorySource interface {
	MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error)
}

// ProviderSources bundles the analysis and billing sources of one account.
// Any field may be nil when the provider has no equivalent.
type ProviderSources struct {
	Metrics      MetricsFetcher
	Rightsizing  RightsizingSource
	Reservations ReservationSource
	Billing      BillingSource
	History      SpendHistorySource
}

// ProviderAdapter is a discovery adapter that can also build the account's
// analysis and billing sources
type ProviderAdapter interface {
	DiscoveryAdapter
	Sources(ctx context.Context, creds model.Credentials) (*ProviderSources, error)
}
