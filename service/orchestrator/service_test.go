package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/analyzer"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/elC0mpa/cloud-steward/service/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testRecord struct {
	id      string
	typ     model.ResourceType
	status  string
	invalid bool
}

func (testRecord) Provider() model.Provider { return model.ProviderAWS }
func (testRecord) Subtype() string          { return "test" }

type testNormalizer struct{}

func (testNormalizer) Normalize(accountID string, record model.RawRecord) (model.Resource, error) {
	rec := record.(testRecord)
	if rec.invalid {
		return model.Resource{}, model.NewValidationError("id", rec.id+" is malformed")
	}
	r := model.Resource{
		ID:        rec.id,
		AccountID: accountID,
		Name:      rec.id,
		Type:      rec.typ,
		Provider:  model.ProviderAWS,
		Status:    rec.status,
		Details:   model.Details{},
	}
	if rec.typ == model.ResourceStorage {
		r.Details[model.DetailAttachmentState] = model.AttachmentUnattached
		r.Details[model.DetailSizeGB] = 100
		r.CostMonthly = 8
	}
	return r, nil
}

func (n testNormalizer) NormalizeBatch(accountID string, records []model.RawRecord) ([]model.Resource, []error) {
	var out []model.Resource
	var errs []error
	for _, rec := range records {
		r, err := n.Normalize(accountID, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	return out, errs
}

type fakeAdapter struct {
	provider model.Provider
	calls    atomic.Int32

	mu        sync.Mutex
	result    *model.DiscoveryResult
	err       error
	gate      chan struct{}
	started   chan struct{}
	startOnce sync.Once

	sources    *service.ProviderSources
	sourcesErr error
}

func (f *fakeAdapter) Provider() model.Provider { return f.provider }

func (f *fakeAdapter) ListResources(ctx context.Context, creds model.Credentials, categories []model.Category) (*model.DiscoveryResult, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAdapter) Sources(ctx context.Context, creds model.Credentials) (*service.ProviderSources, error) {
	if f.sourcesErr != nil {
		return nil, f.sourcesErr
	}
	if f.sources == nil {
		return &service.ProviderSources{}, nil
	}
	return f.sources, nil
}

func (f *fakeAdapter) set(records []model.RawRecord, catErrs ...model.CategoryError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = &model.DiscoveryResult{Records: records, Errors: catErrs}
}

func compute(ids ...string) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, testRecord{id: id, typ: model.ResourceCompute, status: "running"})
	}
	return out
}

type harness struct {
	store   inventory.Store
	adapter *fakeAdapter
	svc     *orchestratorService
}

func newHarness(t *testing.T, accounts ...model.CloudAccount) *harness {
	t.Helper()

	db, err := inventory.Open(inventory.InMemoryConfig(), nil)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	store := inventory.NewService(db, logger)
	t.Cleanup(func() { _ = store.Close() })

	if len(accounts) == 0 {
		accounts = []model.CloudAccount{{ID: "a1", Provider: model.ProviderAWS}}
	}
	for _, a := range accounts {
		require.NoError(t, store.SaveAccount(context.Background(), a))
	}

	adapter := &fakeAdapter{provider: model.ProviderAWS}
	adapter.set(nil)

	svc := NewService(
		[]service.ProviderAdapter{adapter},
		store,
		testNormalizer{},
		reconcile.NewService(store, logger),
		analyzer.NewService(analyzer.DefaultConfig(), logger),
		logger,
		WithClock(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }),
	)
	return &harness{store: store, adapter: adapter, svc: svc}
}

func (h *harness) ids(t *testing.T, accountID string) []string {
	t.Helper()
	list, err := h.store.List(context.Background(), accountID)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func (h *harness) account(t *testing.T, accountID string) *model.CloudAccount {
	t.Helper()
	a, err := h.store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return a
}

func TestSync_InsertsThenSweeps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.adapter.set(compute("i-1", "i-2", "i-3"))
	res, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Discovered)
	assert.Equal(t, 3, res.Inserted)
	assert.True(t, res.Swept)
	assert.Equal(t, model.AccountConnected, res.Status)
	assert.Empty(t, res.Errors)

	h.adapter.set(compute("i-2", "i-4"))
	res, err = h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Deleted)
	assert.ElementsMatch(t, []string{"i-2", "i-4"}, h.ids(t, "a1"))

	account := h.account(t, "a1")
	assert.Equal(t, model.AccountConnected, account.Status)
	require.NotNil(t, account.LastSyncedAt)
	assert.Empty(t, account.ErrorMessage)
}

func TestSync_PartialDiscoveryKeepsUnseenRows(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.adapter.set(compute("i-1", "i-2"))
	_, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)

	h.adapter.set(compute("i-3"), model.CategoryError{Category: model.ResourceStorage, Err: errors.New("throttled")})
	res, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.False(t, res.Swept)
	assert.Equal(t, 0, res.Deleted)
	assert.Equal(t, model.AccountError, res.Status)
	assert.ElementsMatch(t, []string{"i-1", "i-2", "i-3"}, h.ids(t, "a1"))

	account := h.account(t, "a1")
	assert.Equal(t, model.AccountError, account.Status)
	assert.Contains(t, account.ErrorMessage, "storage: throttled")
}

func TestSync_EveryCategoryFailedLeavesInventory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.adapter.set(compute("i-1"))
	_, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)

	h.adapter.set(nil,
		model.CategoryError{Category: model.ResourceCompute, Err: errors.New("boom")},
		model.CategoryError{Category: model.ResourceStorage, Err: errors.New("boom")})
	res, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, model.AccountError, res.Status)
	assert.Len(t, res.Errors, 2)

	list, err := h.store.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.SyncActive, list[0].SyncState)
}

func TestSync_NormalizationErrorsAreReportedNotFatal(t *testing.T) {
	h := newHarness(t)
	h.adapter.set(append(compute("i-1"), testRecord{id: "broken", invalid: true}))

	res, err := h.svc.Sync(context.Background(), model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Discovered)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "broken")
	assert.Equal(t, model.AccountConnected, res.Status)
}

func TestSync_AuthenticationFailureRecordsStatus(t *testing.T) {
	h := newHarness(t)
	h.adapter.err = &model.AuthenticationError{Op: "GetCallerIdentity", Err: errors.New("expired token")}

	res, err := h.svc.Sync(context.Background(), model.SyncRequest{AccountID: "a1"})
	require.Error(t, err)
	assert.True(t, model.IsAuthentication(err))
	require.NotNil(t, res)
	assert.Equal(t, model.AccountError, res.Status)

	account := h.account(t, "a1")
	assert.Equal(t, model.AccountError, account.Status)
	assert.Contains(t, account.ErrorMessage, "expired token")
}

func TestSync_CallerCancellationDoesNotAbortSharedRun(t *testing.T) {
	h := newHarness(t)
	h.adapter.set(compute("i-1"))
	h.adapter.gate = make(chan struct{})
	h.adapter.started = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firstErr := make(chan error, 1)
	go func() {
		_, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
		firstErr <- err
	}()
	<-h.adapter.started

	var (
		wg     sync.WaitGroup
		joined *model.SyncResult
		err    error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		joined, err = h.svc.Sync(context.Background(), model.SyncRequest{AccountID: "a1"})
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(h.adapter.gate)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 1, joined.Inserted)
	assert.Equal(t, int32(1), h.adapter.calls.Load())
	assert.Equal(t, []string{"i-1"}, h.ids(t, "a1"))
	assert.Equal(t, model.AccountConnected, h.account(t, "a1").Status)
}

func TestSync_CancelledBeforeStartDoesNothing(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.adapter.calls.Load())
}

func TestSync_RejectsBadRequests(t *testing.T) {
	h := newHarness(t,
		model.CloudAccount{ID: "a1", Provider: model.ProviderAWS},
		model.CloudAccount{ID: "g1", Provider: model.ProviderGCP})
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.SyncRequest
	}{
		{name: "missing account id", req: model.SyncRequest{}},
		{name: "unknown account", req: model.SyncRequest{AccountID: "nope"}},
		{name: "provider without adapter", req: model.SyncRequest{AccountID: "g1"}},
		{name: "unknown category", req: model.SyncRequest{AccountID: "a1", Categories: []model.Category{"queues"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.svc.Sync(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, model.IsValidation(err), err.Error())
			assert.Nil(t, res)
		})
	}
	assert.Zero(t, h.adapter.calls.Load())
}

func TestSync_ConcurrentCallsShareOneRun(t *testing.T) {
	h := newHarness(t)
	h.adapter.set(compute("i-1"))
	h.adapter.gate = make(chan struct{})
	h.adapter.started = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]*model.SyncResult, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = h.svc.Sync(context.Background(), model.SyncRequest{AccountID: "a1"})
	}()
	<-h.adapter.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = h.svc.Sync(context.Background(), model.SyncRequest{AccountID: "a1"})
	}()
	time.Sleep(50 * time.Millisecond)
	close(h.adapter.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), h.adapter.calls.Load())
	assert.Equal(t, results[0].Inserted, results[1].Inserted)
	assert.NotSame(t, results[0], results[1])
}

func TestSyncAll_KeepsOrderAndJoinsErrors(t *testing.T) {
	h := newHarness(t,
		model.CloudAccount{ID: "a1", Provider: model.ProviderAWS},
		model.CloudAccount{ID: "a2", Provider: model.ProviderAWS})
	h.adapter.set(compute("i-1"))

	results, err := h.svc.SyncAll(context.Background(), []string{"a1", "missing", "a2"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "account missing"), err.Error())

	require.Len(t, results, 3)
	assert.Equal(t, "a1", results[0].AccountID)
	assert.Nil(t, results[1])
	assert.Equal(t, "a2", results[2].AccountID)
}

func TestAnalyze_PersistsRecommendations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.adapter.set([]model.RawRecord{
		testRecord{id: "vol-1", typ: model.ResourceStorage, status: "available"},
		testRecord{id: "i-1", typ: model.ResourceCompute, status: "running"},
	})
	_, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)

	recs, err := h.svc.Analyze(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecommendationUnusedResource, recs[0].Type)
	assert.Equal(t, "vol-1", recs[0].ResourceID)

	stored, err := h.store.ListRecommendations(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	rec, err := h.svc.SetRecommendationStatus(ctx, stored[0].ID, model.RecommendationDismissed)
	require.NoError(t, err)
	assert.Equal(t, model.RecommendationDismissed, rec.Status)

	recs, err = h.svc.Analyze(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAnalyze_ContinuesWithoutSources(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.adapter.sourcesErr = errors.New("no credentials for metrics")
	h.adapter.set([]model.RawRecord{testRecord{id: "vol-1", typ: model.ResourceStorage, status: "available"}})
	_, err := h.svc.Sync(ctx, model.SyncRequest{AccountID: "a1"})
	require.NoError(t, err)

	recs, err := h.svc.Analyze(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSetRecommendationStatus_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.SetRecommendationStatus(ctx, "r1", "archived")
	assert.True(t, model.IsValidation(err))

	_, err = h.svc.SetRecommendationStatus(ctx, "", model.RecommendationApplied)
	assert.True(t, model.IsValidation(err))

	_, err = h.svc.SetRecommendationStatus(ctx, "does-not-exist", model.RecommendationApplied)
	assert.True(t, model.IsValidation(err))
}
