package azureadapter

import (
	"context"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	azurecompute "github.com/elC0mpa/cloud-steward/service/azure/compute"
	azurecostmanagement "github.com/elC0mpa/cloud-steward/service/azure/costmanagement"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	"go.uber.org/zap"
)

// Clients are the per-subscription Azure service clients
type Clients struct {
	Identity service.IdentityService
	Compute  azurecompute.ComputeService
	Cost     azurecostmanagement.CostManagementService
}

// ClientFactory builds the clients for one subscription
type ClientFactory func(ctx context.Context, creds model.Credentials) (*Clients, error)

type adapter struct {
	clients   ClientFactory
	collector discovery.CollectorService
	logger    *zap.Logger
}
