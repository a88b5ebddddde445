package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an account or recommendation does not exist
var ErrNotFound = errors.New("not found")

// Key prefixes. Every key is "<prefix>/<accountID>[/<id>]".
const (
	prefixResource       = "res"
	prefixAccount        = "acct"
	prefixRecommendation = "rec"
	prefixRecIndex       = "recidx"
	prefixDecision       = "dec"
)

type store struct {
	db     *badger.DB
	logger *zap.Logger
	now    func() time.Time
}

// Store is the Badger-backed persistence used by reconciliation, the
// orchestrator and the analyzer
type Store interface {
	service.InventoryStore
	service.AccountStore
	service.RecommendationStore
	SaveAccount(ctx context.Context, account model.CloudAccount) error
	ListAccounts(ctx context.Context) ([]model.CloudAccount, error)
	Close() error
}

// Option customises the store
type Option func(*store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *store) { s.now = now }
}
