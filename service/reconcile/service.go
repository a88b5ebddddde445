package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func NewService(store service.InventoryStore, logger *zap.Logger) *reconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter("cloud-steward.reconcile")
	rowsUpserted, _ := meter.Int64Counter("steward_reconcile_rows_upserted_total",
		metric.WithDescription("Resources written by reconciliation"))
	rowsSwept, _ := meter.Int64Counter("steward_reconcile_rows_swept_total",
		metric.WithDescription("Stale resources deleted by reconciliation"))
	cyclesFailed, _ := meter.Int64Counter("steward_reconcile_cycles_failed_total",
		metric.WithDescription("Reconciliation cycles that ended without a sweep because of failures"))

	return &reconcileService{
		store:        store,
		logger:       logger.Named("reconcile"),
		now:          time.Now,
		inflight:     map[string]struct{}{},
		rowsUpserted: rowsUpserted,
		rowsSwept:    rowsSwept,
		cyclesFailed: cyclesFailed,
	}
}

// Reconcile runs one mark, upsert and sweep cycle for accountID.
//
// Only one cycle per account may be in flight; a concurrent call for the same
// account fails with model.ErrSyncInProgress. If any upsert fails the sweep is
// skipped, the stale marks stay for the next cycle and a
// *model.PartialBatchError is returned alongside the counts.
func (s *reconcileService) Reconcile(ctx context.Context, accountID string, batch []model.Resource, opts ...RunOption) (*model.ReconcileResult, error) {
	if accountID == "" {
		return nil, model.NewValidationError("accountId", "required")
	}

	o := runOptions{sweep: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !s.acquire(accountID) {
		return nil, fmt.Errorf("account %s: %w", accountID, model.ErrSyncInProgress)
	}
	defer s.release(accountID)

	logger := s.logger.With(zap.String("account_id", accountID))
	result := &model.ReconcileResult{}

	if err := s.store.MarkPendingStale(ctx, accountID); err != nil {
		return result, fmt.Errorf("failed to mark inventory: %w", err)
	}

	now := s.now().UTC()
	var failures []error
	for _, r := range dedupe(batch) {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", r.ID, err))
			result.Failed++
			continue
		}

		r.AccountID = accountID
		r.SyncState = model.SyncActive
		r.LastUpdated = now

		inserted, err := s.store.Upsert(ctx, r)
		if err != nil {
			logger.Warn("failed to upsert resource", zap.String("resource_id", r.ID), zap.Error(err))
			failures = append(failures, err)
			result.Failed++
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	s.rowsUpserted.Add(ctx, int64(result.Inserted+result.Updated))

	if len(failures) > 0 {
		s.cyclesFailed.Add(ctx, 1)
		logger.Warn("sweep suppressed after upsert failures",
			zap.Int("failed", result.Failed),
			zap.Int("succeeded", result.Inserted+result.Updated))
		return result, &model.PartialBatchError{
			Op:        "reconcile",
			Succeeded: result.Inserted + result.Updated,
			Failed:    result.Failed,
			Errors:    failures,
		}
	}

	if !o.sweep {
		logger.Debug("sweep disabled for this cycle")
		return result, nil
	}

	deleted, err := s.store.DeleteWherePendingStale(ctx, accountID)
	if err != nil {
		return result, fmt.Errorf("failed to sweep inventory: %w", err)
	}
	result.Deleted = deleted
	result.Swept = true
	s.rowsSwept.Add(ctx, int64(deleted))

	logger.Info("reconciled inventory",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted))
	return result, nil
}

// IsInProgress reports whether err is a rejected concurrent reconciliation
func IsInProgress(err error) bool {
	return errors.Is(err, model.ErrSyncInProgress)
}

func (s *reconcileService) acquire(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[accountID]; busy {
		return false
	}
	s.inflight[accountID] = struct{}{}
	return true
}

func (s *reconcileService) release(accountID string) {
	s.mu.Lock()
	delete(s.inflight, accountID)
	s.mu.Unlock()
}

// dedupe collapses repeated ids, keeping the last occurrence at the position of the first
func dedupe(batch []model.Resource) []model.Resource {
	index := make(map[string]int, len(batch))
	out := make([]model.Resource, 0, len(batch))
	for _, r := range batch {
		if i, ok := index[r.ID]; ok {
			out[i] = r
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}
