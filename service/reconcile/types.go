package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type reconcileService struct {
	store  service.InventoryStore
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}

	rowsUpserted metric.Int64Counter
	rowsSwept    metric.Int64Counter
	cyclesFailed metric.Int64Counter
}

// ReconcileService merges discovery batches into the persisted inventory
type ReconcileService interface {
	Reconcile(ctx context.Context, accountID string, batch []model.Resource, opts ...RunOption) (*model.ReconcileResult, error)
}

type runOptions struct {
	sweep bool
}

// RunOption customises one reconciliation cycle
type RunOption func(*runOptions)

// WithoutSweep refreshes and inserts rows but leaves unseen rows in place.
// Used when the batch is known to be incomplete.
func WithoutSweep() RunOption {
	return func(o *runOptions) { o.sweep = false }
}
