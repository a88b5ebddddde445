package reconcile

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) inventory.Store {
	t.Helper()
	db, err := inventory.Open(inventory.InMemoryConfig(), nil)
	require.NoError(t, err)
	store := inventory.NewService(db, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func batch(ids ...string) []model.Resource {
	out := make([]model.Resource, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Resource{ID: id, Name: id, Type: model.ResourceCompute})
	}
	return out
}

func ids(t *testing.T, store service.InventoryStore, accountID string) []string {
	t.Helper()
	list, err := store.List(context.Background(), accountID)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	sort.Strings(out)
	return out
}

func TestReconcile_Completeness(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := NewService(store, zaptest.NewLogger(t))

	res, err := s.Reconcile(ctx, "a1", batch("i-1", "i-2", "i-3"))
	require.NoError(t, err)
	assert.Equal(t, &model.ReconcileResult{Inserted: 3, Swept: true}, res)

	res, err = s.Reconcile(ctx, "a1", batch("i-2", "i-4"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Deleted)

	assert.Equal(t, []string{"i-2", "i-4"}, ids(t, store, "a1"))

	list, err := store.List(ctx, "a1")
	require.NoError(t, err)
	for _, r := range list {
		assert.Equal(t, model.SyncActive, r.SyncState)
		assert.Equal(t, "a1", r.AccountID)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := NewService(store, zaptest.NewLogger(t))

	_, err := s.Reconcile(ctx, "a1", batch("i-1", "i-2"))
	require.NoError(t, err)
	before, err := store.List(ctx, "a1")
	require.NoError(t, err)

	res, err := s.Reconcile(ctx, "a1", batch("i-1", "i-2"))
	require.NoError(t, err)
	assert.Equal(t, &model.ReconcileResult{Updated: 2, Swept: true}, res)

	after, err := store.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, after, 2)
	for i := range after {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.True(t, after[i].LastUpdated.After(before[i].LastUpdated))
	}
}

func TestReconcile_EmptyBatchSweepsEverything(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := NewService(store, zaptest.NewLogger(t))

	_, err := s.Reconcile(ctx, "a1", batch("i-1"))
	require.NoError(t, err)

	res, err := s.Reconcile(ctx, "a1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, ids(t, store, "a1"))
}

func TestReconcile_DuplicateIDsCollapse(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := NewService(store, zaptest.NewLogger(t))

	b := batch("i-1", "i-1")
	b[1].Name = "second"

	res, err := s.Reconcile(ctx, "a1", b)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	list, err := store.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Name)
}

// failingStore fails upserts for the listed ids
type failingStore struct {
	service.InventoryStore
	fail map[string]bool
}

func (f *failingStore) Upsert(ctx context.Context, r model.Resource) (bool, error) {
	if f.fail[r.ID] {
		return false, errors.New("write conflict")
	}
	return f.InventoryStore.Upsert(ctx, r)
}

func TestReconcile_UpsertFailureSuppressesSweep(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := NewService(store, zaptest.NewLogger(t))

	_, err := s.Reconcile(ctx, "a1", batch("i-1", "i-2", "i-3"))
	require.NoError(t, err)

	broken := NewService(&failingStore{InventoryStore: store, fail: map[string]bool{"i-2": true}}, zaptest.NewLogger(t))
	res, err := broken.Reconcile(ctx, "a1", batch("i-1", "i-2"))

	require.Error(t, err)
	var partial *model.PartialBatchError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Succeeded)
	assert.Equal(t, 1, partial.Failed)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Deleted)
	assert.False(t, res.Swept)

	// nothing swept, the unseen rows keep their stale mark for the next cycle
	assert.Equal(t, []string{"i-1", "i-2", "i-3"}, ids(t, store, "a1"))
	list, err := store.List(ctx, "a1")
	require.NoError(t, err)
	states := map[string]model.SyncState{}
	for _, r := range list {
		states[r.ID] = r.SyncState
	}
	assert.Equal(t, model.SyncActive, states["i-1"])
	assert.Equal(t, model.SyncPendingStale, states["i-2"])
	assert.Equal(t, model.SyncPendingStale, states["i-3"])

	// the next clean cycle clears them
	res, err = s.Reconcile(ctx, "a1", batch("i-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, []string{"i-1"}, ids(t, store, "a1"))
}

func TestReconcile_WithoutSweepKeepsUnseenRows(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := NewService(store, zaptest.NewLogger(t))

	_, err := s.Reconcile(ctx, "a1", batch("i-1", "i-2"))
	require.NoError(t, err)

	res, err := s.Reconcile(ctx, "a1", batch("i-1"), WithoutSweep())
	require.NoError(t, err)
	assert.False(t, res.Swept)
	assert.Equal(t, []string{"i-1", "i-2"}, ids(t, store, "a1"))
}

// blockingStore parks MarkPendingStale until released
type blockingStore struct {
	service.InventoryStore
	entered chan string
	release chan struct{}
}

func (b *blockingStore) MarkPendingStale(ctx context.Context, accountID string) error {
	b.entered <- accountID
	<-b.release
	return b.InventoryStore.MarkPendingStale(ctx, accountID)
}

func TestReconcile_RejectsConcurrentCycleForSameAccount(t *testing.T) {
	ctx := context.Background()
	store := &blockingStore{
		InventoryStore: newStore(t),
		entered:        make(chan string, 2),
		release:        make(chan struct{}),
	}
	s := NewService(store, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() {
		_, err := s.Reconcile(ctx, "a1", batch("i-1"))
		done <- err
	}()
	require.Equal(t, "a1", <-store.entered)

	_, err := s.Reconcile(ctx, "a1", batch("i-2"))
	assert.ErrorIs(t, err, model.ErrSyncInProgress)
	assert.True(t, IsInProgress(err))

	other := make(chan error, 1)
	go func() {
		_, err := s.Reconcile(ctx, "a2", batch("i-9"))
		other <- err
	}()
	require.Equal(t, "a2", <-store.entered)

	close(store.release)
	require.NoError(t, <-done)
	require.NoError(t, <-other)

	assert.Equal(t, []string{"i-1"}, ids(t, store, "a1"))
	assert.Equal(t, []string{"i-9"}, ids(t, store, "a2"))

	// the lock is released once the cycle finishes
	_, err = s.Reconcile(ctx, "a1", batch("i-1"))
	assert.NoError(t, err)
}

func TestReconcile_RequiresAccount(t *testing.T) {
	s := NewService(newStore(t), zaptest.NewLogger(t))
	_, err := s.Reconcile(context.Background(), "", batch("i-1"))
	assert.True(t, model.IsValidation(err))
}
