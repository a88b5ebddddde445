package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T, opts ...Option) *store {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db, err := Open(InMemoryConfig(), logger)
	require.NoError(t, err)

	s := NewService(db, logger, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func resource(accountID, id string) model.Resource {
	return model.Resource{
		ID:        id,
		AccountID: accountID,
		Name:      id,
		Type:      model.ResourceCompute,
		Provider:  model.ProviderAWS,
		Details:   model.Details{model.DetailSize: "t3.micro", model.DetailAttachments: 2},
		SyncState: model.SyncActive,
	}
}

func TestUpsert_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inserted, err := s.Upsert(ctx, resource("a1", "i-1"))
	require.NoError(t, err)
	assert.True(t, inserted)

	r := resource("a1", "i-1")
	r.Name = "renamed"
	inserted, err = s.Upsert(ctx, r)
	require.NoError(t, err)
	assert.False(t, inserted)

	list, err := s.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "renamed", list[0].Name)

	attachments, ok := list[0].Details.Int(model.DetailAttachments)
	require.True(t, ok)
	assert.Equal(t, 2, attachments)
}

func TestUpsert_LastUpdatedStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return frozen }))

	_, err := s.Upsert(ctx, resource("a1", "i-1"))
	require.NoError(t, err)
	first, err := s.List(ctx, "a1")
	require.NoError(t, err)

	_, err = s.Upsert(ctx, resource("a1", "i-1"))
	require.NoError(t, err)
	second, err := s.List(ctx, "a1")
	require.NoError(t, err)

	assert.True(t, second[0].LastUpdated.After(first[0].LastUpdated))
}

func TestUpsert_RequiresIDs(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Upsert(context.Background(), model.Resource{ID: "x"})
	assert.True(t, model.IsValidation(err))
}

func TestMarkAndSweep_IsScopedToAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, r := range []model.Resource{resource("a1", "i-1"), resource("a1", "i-2"), resource("a2", "i-9")} {
		_, err := s.Upsert(ctx, r)
		require.NoError(t, err)
	}

	require.NoError(t, s.MarkPendingStale(ctx, "a1"))
	_, err := s.Upsert(ctx, resource("a1", "i-1"))
	require.NoError(t, err)

	deleted, err := s.DeleteWherePendingStale(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	a1, err := s.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, a1, 1)
	assert.Equal(t, "i-1", a1[0].ID)

	a2, err := s.List(ctx, "a2")
	require.NoError(t, err)
	require.Len(t, a2, 1)
	assert.Equal(t, model.SyncActive, a2[0].SyncState)
}

func TestMarkAndSweep_AccountPrefixIsNotShared(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Upsert(ctx, resource("prod/eu", "i-eu"))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, resource("prod", "i-1"))
	require.NoError(t, err)

	prod, err := s.List(ctx, "prod")
	require.NoError(t, err)
	require.Len(t, prod, 1)
	assert.Equal(t, "i-1", prod[0].ID)

	require.NoError(t, s.MarkPendingStale(ctx, "prod"))
	_, err = s.Upsert(ctx, resource("prod", "i-1"))
	require.NoError(t, err)

	deleted, err := s.DeleteWherePendingStale(ctx, "prod")
	require.NoError(t, err)
	assert.Zero(t, deleted)

	eu, err := s.List(ctx, "prod/eu")
	require.NoError(t, err)
	require.Len(t, eu, 1)
	assert.Equal(t, "i-eu", eu[0].ID)
	assert.Equal(t, model.SyncActive, eu[0].SyncState)
}

func TestUpdateSyncStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveAccount(ctx, model.CloudAccount{ID: "a1", Provider: model.ProviderGCP}))

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateSyncStatus(ctx, "a1", model.AccountError, at, "compute: throttled"))

	acct, err := s.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGCP, acct.Provider)
	assert.Equal(t, model.AccountError, acct.Status)
	assert.Equal(t, "compute: throttled", acct.ErrorMessage)
	require.NotNil(t, acct.LastSyncedAt)
	assert.True(t, at.Equal(*acct.LastSyncedAt))

	_, err = s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecommendations_DecisionsSurviveNewRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := []model.OptimizationRecommendation{
		{ID: "r1", Type: model.RecommendationUnderutilized, ResourceID: "i-1", Status: model.RecommendationPending, Fingerprint: "fp1"},
		{ID: "r2", Type: model.RecommendationUnusedResource, ResourceID: "vol-1", Status: model.RecommendationPending, Fingerprint: "fp2"},
	}
	require.NoError(t, s.SaveRecommendations(ctx, "a1", first))

	rec, err := s.SetRecommendationStatus(ctx, "r1", model.RecommendationDismissed)
	require.NoError(t, err)
	assert.Equal(t, model.RecommendationDismissed, rec.Status)

	decisions, err := s.Decisions(ctx, "a1")
	require.NoError(t, err)
	require.Contains(t, decisions, "underutilized|i-1")
	assert.Equal(t, "fp1", decisions["underutilized|i-1"].Fingerprint)

	second := []model.OptimizationRecommendation{
		{ID: "r3", Type: model.RecommendationUnusedResource, ResourceID: "vol-1", Status: model.RecommendationPending},
	}
	require.NoError(t, s.SaveRecommendations(ctx, "a1", second))

	recs, err := s.ListRecommendations(ctx, "a1")
	require.NoError(t, err)
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"r1", "r3"}, ids)

	_, err = s.SetRecommendationStatus(ctx, "r2", model.RecommendationApplied)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetRecommendationStatus(ctx, "r1", model.RecommendationPending)
	require.NoError(t, err)
	decisions, err = s.Decisions(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
