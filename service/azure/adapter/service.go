package azureadapter

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	azurecompute "github.com/elC0mpa/cloud-steward/service/azure/compute"
	azureconfig "github.com/elC0mpa/cloud-steward/service/azure/config"
	azurecostmanagement "github.com/elC0mpa/cloud-steward/service/azure/costmanagement"
	azureidentity "github.com/elC0mpa/cloud-steward/service/azure/identity"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// NewClientFactory resolves DefaultAzureCredential and builds every client
// for the subscription in creds
func NewClientFactory() ClientFactory {
	return func(_ context.Context, creds model.Credentials) (*Clients, error) {
		cfg, err := azureconfig.NewService(creds.SubscriptionID)
		if err != nil {
			return nil, err
		}

		identity, err := azureidentity.NewService(cfg.GetSubscriptionID(), cfg.GetCredential())
		if err != nil {
			return nil, err
		}
		compute, err := azurecompute.NewService(cfg.GetSubscriptionID(), cfg.GetCredential())
		if err != nil {
			return nil, err
		}
		cost, err := azurecostmanagement.NewService(cfg.GetSubscriptionID(), cfg.GetCredential())
		if err != nil {
			return nil, err
		}

		return &Clients{
			Identity: identity,
			Compute:  compute,
			Cost:     cost,
		}, nil
	}
}

func NewAdapter(clients ClientFactory, collector discovery.CollectorService, logger *zap.Logger) *adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adapter{
		clients:   clients,
		collector: collector,
		logger:    logger.Named("azure"),
	}
}

func (a *adapter) Provider() model.Provider {
	return model.ProviderAzure
}

// ListResources implements service.DiscoveryAdapter. Azure has no database
// category here; it is skipped by the collector.
func (a *adapter) ListResources(ctx context.Context, creds model.Credentials, categories []model.Category) (*model.DiscoveryResult, error) {
	c, err := a.clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	info, err := c.Identity.GetAccountInfo(ctx)
	if err != nil {
		return nil, discovery.IdentityFailure("get subscription", err, azureconfig.ClassifyError)
	}
	a.logger.Debug("listing resources",
		zap.String("subscription", info.AccountID),
		zap.String("subscription_name", info.AccountName))

	return a.collector.Collect(ctx, categories, fetchers(c), azureconfig.ClassifyError), nil
}

// Sources implements service.ProviderAdapter. Azure Monitor and Advisor are
// not wired, so utilization and rightsizing sources are nil.
func (a *adapter) Sources(ctx context.Context, creds model.Credentials) (*service.ProviderSources, error) {
	c, err := a.clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	return &service.ProviderSources{
		Reservations: c.Compute,
		Billing:      c.Cost,
		History:      c.Cost,
	}, nil
}

func fetchers(c *Clients) map[model.Category]discovery.Fetcher {
	return map[model.Category]discovery.Fetcher{
		model.ResourceCompute: func(ctx context.Context) ([]model.RawRecord, error) {
			vms, err := c.Compute.ListVMs(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(vms, func(vm *armcompute.VirtualMachine, _ int) model.RawRecord {
				return model.AzureVM{VM: vm}
			}), nil
		},
		model.ResourceStorage: func(ctx context.Context) ([]model.RawRecord, error) {
			disks, err := c.Compute.ListDisks(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(disks, func(d *armcompute.Disk, _ int) model.RawRecord {
				return model.AzureDisk{Disk: d}
			}), nil
		},
		model.ResourceNetwork: func(ctx context.Context) ([]model.RawRecord, error) {
			ips, err := c.Compute.ListPublicIPs(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(ips, func(ip *armnetwork.PublicIPAddress, _ int) model.RawRecord {
				return model.AzurePublicIP{Address: ip}
			}), nil
		},
	}
}
