package gcpadapter

import (
	"context"
	"sync"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	gcpbilling "github.com/elC0mpa/cloud-steward/service/gcp/billing"
	gcpcompute "github.com/elC0mpa/cloud-steward/service/gcp/compute"
	gcpmonitoring "github.com/elC0mpa/cloud-steward/service/gcp/monitoring"
	"go.uber.org/zap"
)

// Clients are the per-project GCP service clients. Billing is nil when no
// billing account is configured.
type Clients struct {
	Identity   service.IdentityService
	Compute    gcpcompute.ComputeService
	Monitoring gcpmonitoring.MonitoringService
	Billing    gcpbilling.BillingService
}

// ClientFactory builds the clients for one project
type ClientFactory func(ctx context.Context, creds model.Credentials) (*Clients, error)

type adapter struct {
	factory   ClientFactory
	collector discovery.CollectorService
	logger    *zap.Logger

	// clients are cached per project because the BigQuery client holds
	// connections until closed
	mu      sync.Mutex
	clients map[string]*Clients
}
