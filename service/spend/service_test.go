package spend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeBilling struct {
	summary *model.SpendSummary
	errs    []error
	calls   int
}

func (f *fakeBilling) MonthToDate(context.Context) (*model.SpendSummary, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.summary, nil
}

type fakeHistory struct {
	months int
}

func (f *fakeHistory) MonthlyTotals(_ context.Context, months int) ([]model.CostInfo, error) {
	f.months = months
	return make([]model.CostInfo, months), nil
}

func costGroup(amounts map[string]float64) model.CostGroup {
	g := model.CostGroup{}
	for name, amount := range amounts {
		g[name] = struct {
			Amount float64
			Unit   string
		}{Amount: amount, Unit: "USD"}
	}
	return g
}

func newTestService(t *testing.T, now time.Time) (*spendService, inventory.Store) {
	t.Helper()
	db, err := inventory.Open(inventory.InMemoryConfig(), nil)
	require.NoError(t, err)
	store := inventory.NewService(db, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = store.Close() })

	s := NewService(DefaultConfig(), store, zaptest.NewLogger(t),
		WithClock(func() time.Time { return now }),
		WithRetryOptions(retry.WithSleep(func(context.Context, time.Duration) error { return nil })))
	return s, store
}

func TestReport_ProjectsAndComputesVariance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)
	s, store := newTestService(t, now)

	for id, cost := range map[string]float64{"i-1": 100, "i-2": 50} {
		_, err := store.Upsert(ctx, model.Resource{ID: id, AccountID: "a1", CostMonthly: cost, SyncState: model.SyncActive})
		require.NoError(t, err)
	}
	_, err := store.Upsert(ctx, model.Resource{ID: "i-stale", AccountID: "a1", CostMonthly: 999, SyncState: model.SyncPendingStale})
	require.NoError(t, err)

	billing := &fakeBilling{summary: &model.SpendSummary{
		Provider: model.ProviderAWS,
		Start:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      now,
		Total:    60,
		Currency: "USD",
		ByService: model.CostInfo{CostGroup: costGroup(map[string]float64{
			"Amazon EC2": 40, "Amazon S3": 15, "AWS KMS": 5, "Tax": 0,
		})},
	}}

	report, err := s.Report(ctx, "a1", billing)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Resources)
	assert.Equal(t, 150.0, report.EstimatedMonthly)
	assert.Equal(t, 60.0, report.BilledToDate)
	// 10 of 30 days elapsed
	assert.Equal(t, 180.0, report.ProjectedMonthly)
	assert.Equal(t, -30.0, report.Variance)
	assert.InDelta(t, -16.67, report.VariancePercent, 0.001)
	assert.Equal(t, "USD", report.Currency)

	require.Len(t, report.TopServices, 3)
	assert.Equal(t, "Amazon EC2", report.TopServices[0].Name)
	assert.Equal(t, "AWS KMS", report.TopServices[2].Name)
}

func TestReport_RetriesNetworkErrors(t *testing.T) {
	now := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	s, _ := newTestService(t, now)

	billing := &fakeBilling{
		errs: []error{&model.NetworkError{Op: "GetCostAndUsage", StatusCode: 429, Err: errors.New("slow down")}},
		summary: &model.SpendSummary{
			Start: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			Total: 10,
		},
	}
	report, err := s.Report(context.Background(), "a1", billing)
	require.NoError(t, err)
	assert.Equal(t, 2, billing.calls)
	assert.Equal(t, -100.0, report.VariancePercent)
}

func TestReport_AuthenticationIsNotRetried(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	billing := &fakeBilling{errs: []error{&model.AuthenticationError{Op: "query", Err: errors.New("denied")}}}

	_, err := s.Report(context.Background(), "a1", billing)
	require.Error(t, err)
	assert.True(t, model.IsAuthentication(err))
	assert.Equal(t, 1, billing.calls)
}

func TestReport_RequiresSource(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	_, err := s.Report(context.Background(), "a1", nil)
	assert.True(t, model.IsValidation(err))

	_, err = s.History(context.Background(), nil)
	assert.True(t, model.IsValidation(err))
}

func TestHistory_UsesConfiguredMonths(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	src := &fakeHistory{}

	months, err := s.History(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 6, src.months)
	assert.Len(t, months, 6)
}

func TestProject(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{name: "first hours count as one day", now: start.Add(2 * time.Hour), want: 280},
		{name: "mid month", now: start.AddDate(0, 0, 14), want: 20},
		{name: "month over", now: start.AddDate(0, 1, 2), want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, project(10, start, tt.now), 0.0001)
		})
	}
}
