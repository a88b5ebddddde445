package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/elC0mpa/cloud-steward/model"
	"go.uber.org/zap"
)

// NewService wraps an open database. The store does not own db unless Close is called.
func NewService(db *badger.DB, logger *zap.Logger, opts ...Option) *store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &store{
		db:     db,
		logger: logger.Named("inventory"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *store) Close() error {
	return s.db.Close()
}

// key joins escaped segments so an id containing "/" can never extend
// another account's prefix. Azure resource ids are full ARM paths.
func key(prefix, accountID string, id ...string) []byte {
	k := prefix + "/" + url.PathEscape(accountID)
	for _, part := range id {
		k += "/" + url.PathEscape(part)
	}
	return []byte(k)
}

func scanPrefix(prefix, accountID string) []byte {
	return []byte(prefix + "/" + url.PathEscape(accountID) + "/")
}

// Upsert implements service.InventoryStore. The stored LastUpdated is bumped
// past the previous value so it strictly increases even under clock skew.
func (s *store) Upsert(ctx context.Context, resource model.Resource) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if resource.AccountID == "" || resource.ID == "" {
		return false, model.NewValidationError("resource", "account id and resource id are required")
	}

	inserted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(prefixResource, resource.AccountID, resource.ID)

		var previous model.Resource
		err := getJSON(txn, k, &previous)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			inserted = true
		case err != nil:
			return err
		}

		if resource.LastUpdated.IsZero() {
			resource.LastUpdated = s.now().UTC()
		}
		if !inserted && !resource.LastUpdated.After(previous.LastUpdated) {
			resource.LastUpdated = previous.LastUpdated.Add(time.Microsecond)
		}

		return setJSON(txn, k, resource)
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert resource %s: %w", resource.ID, err)
	}
	return inserted, nil
}

// MarkPendingStale implements service.InventoryStore
func (s *store) MarkPendingStale(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resources, err := s.List(ctx, accountID)
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range resources {
		r.SyncState = model.SyncPendingStale
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode resource %s: %w", r.ID, err)
		}
		if err := wb.Set(key(prefixResource, accountID, r.ID), data); err != nil {
			return fmt.Errorf("failed to mark resource %s: %w", r.ID, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to mark resources of %s: %w", accountID, err)
	}
	return nil
}

// DeleteWherePendingStale implements service.InventoryStore
func (s *store) DeleteWherePendingStale(ctx context.Context, accountID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	resources, err := s.List(ctx, accountID)
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	deleted := 0
	for _, r := range resources {
		if r.SyncState != model.SyncPendingStale {
			continue
		}
		if err := wb.Delete(key(prefixResource, accountID, r.ID)); err != nil {
			return 0, fmt.Errorf("failed to delete resource %s: %w", r.ID, err)
		}
		deleted++
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to sweep resources of %s: %w", accountID, err)
	}

	if deleted > 0 {
		s.logger.Debug("swept stale resources", zap.String("account_id", accountID), zap.Int("deleted", deleted))
	}
	return deleted, nil
}

// List implements service.InventoryStore. Resources are ordered by id.
func (s *store) List(ctx context.Context, accountID string) ([]model.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resources []model.Resource
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, scanPrefix(prefixResource, accountID), func(data []byte) error {
			var r model.Resource
			if err := json.Unmarshal(data, &r); err != nil {
				return err
			}
			resources = append(resources, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources of %s: %w", accountID, err)
	}
	return resources, nil
}

// SaveAccount registers or replaces an account
func (s *store) SaveAccount(ctx context.Context, account model.CloudAccount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if account.ID == "" {
		return model.NewValidationError("id", "account id is required")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key(prefixAccount, account.ID), account)
	})
}

// GetAccount implements service.AccountStore
func (s *store) GetAccount(ctx context.Context, accountID string) (*model.CloudAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var account model.CloudAccount
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key(prefixAccount, accountID), &account)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return &account, nil
}

// ListAccounts returns every registered account ordered by id
func (s *store) ListAccounts(ctx context.Context) ([]model.CloudAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var accounts []model.CloudAccount
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, []byte(prefixAccount+"/"), func(data []byte) error {
			var a model.CloudAccount
			if err := json.Unmarshal(data, &a); err != nil {
				return err
			}
			accounts = append(accounts, a)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateSyncStatus implements service.AccountStore. Unknown accounts are created.
func (s *store) UpdateSyncStatus(ctx context.Context, accountID string, status model.AccountStatus, lastSyncedAt time.Time, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(prefixAccount, accountID)

		account := model.CloudAccount{ID: accountID}
		if err := getJSON(txn, k, &account); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		synced := lastSyncedAt.UTC()
		account.Status = status
		account.LastSyncedAt = &synced
		account.ErrorMessage = errorMessage

		return setJSON(txn, k, account)
	})
	if err != nil {
		return fmt.Errorf("failed to update sync status of %s: %w", accountID, err)
	}
	return nil
}

// SaveRecommendations implements service.RecommendationStore. Pending
// recommendations from earlier runs are replaced, decided ones are kept.
func (s *store) SaveRecommendations(ctx context.Context, accountID string, recs []model.OptimizationRecommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := s.ListRecommendations(ctx, accountID)
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, rec := range existing {
		if rec.Status != model.RecommendationPending {
			continue
		}
		if err := wb.Delete(key(prefixRecommendation, accountID, rec.ID)); err != nil {
			return fmt.Errorf("failed to drop recommendation %s: %w", rec.ID, err)
		}
		if err := wb.Delete(key(prefixRecIndex, rec.ID)); err != nil {
			return fmt.Errorf("failed to drop recommendation index %s: %w", rec.ID, err)
		}
	}

	for _, rec := range recs {
		rec.AccountID = accountID
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode recommendation %s: %w", rec.ID, err)
		}
		if err := wb.Set(key(prefixRecommendation, accountID, rec.ID), data); err != nil {
			return fmt.Errorf("failed to save recommendation %s: %w", rec.ID, err)
		}
		if err := wb.Set(key(prefixRecIndex, rec.ID), []byte(accountID)); err != nil {
			return fmt.Errorf("failed to index recommendation %s: %w", rec.ID, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to save recommendations of %s: %w", accountID, err)
	}
	return nil
}

// ListRecommendations implements service.RecommendationStore, newest first
func (s *store) ListRecommendations(ctx context.Context, accountID string) ([]model.OptimizationRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recs []model.OptimizationRecommendation
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, scanPrefix(prefixRecommendation, accountID), func(data []byte) error {
			var rec model.OptimizationRecommendation
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations of %s: %w", accountID, err)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].MonthlySavings > recs[j].MonthlySavings
	})
	return recs, nil
}

// SetRecommendationStatus implements service.RecommendationStore. A terminal
// status records a decision keyed by (type, resource); going back to pending
// clears it.
func (s *store) SetRecommendationStatus(ctx context.Context, id string, status model.RecommendationStatus) (*model.OptimizationRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec model.OptimizationRecommendation
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(prefixRecIndex, id))
		if err != nil {
			return err
		}
		accountID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		recKey := key(prefixRecommendation, string(accountID), id)
		if err := getJSON(txn, recKey, &rec); err != nil {
			return err
		}

		rec.Status = status
		if err := setJSON(txn, recKey, rec); err != nil {
			return err
		}

		decKey := key(prefixDecision, rec.AccountID, rec.Key())
		if !status.Terminal() {
			return txn.Delete(decKey)
		}
		return setJSON(txn, decKey, model.Decision{
			Status:      status,
			Fingerprint: rec.Fingerprint,
			DecidedAt:   s.now().UTC(),
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set status of recommendation %s: %w", id, err)
	}

	s.logger.Info("recommendation decided",
		zap.String("account_id", rec.AccountID),
		zap.String("recommendation_id", id),
		zap.String("status", string(status)))
	return &rec, nil
}

// Decisions implements service.RecommendationStore, keyed by OptimizationRecommendation.Key
func (s *store) Decisions(ctx context.Context, accountID string) (map[string]model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := scanPrefix(prefixDecision, accountID)
	decisions := map[string]model.Decision{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			decKey := string(item.Key()[len(prefix):])

			var d model.Decision
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return err
			}
			decisions[decKey] = d
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions of %s: %w", accountID, err)
	}
	return decisions, nil
}

func getJSON(txn *badger.Txn, k []byte, v any) error {
	item, err := txn.Get(k)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(k, data)
}

func scanJSON(txn *badger.Txn, prefix []byte, fn func(data []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
