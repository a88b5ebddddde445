package gcpadapter

import (
	"context"
	"errors"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	gcpbilling "github.com/elC0mpa/cloud-steward/service/gcp/billing"
	gcpcompute "github.com/elC0mpa/cloud-steward/service/gcp/compute"
	gcpconfig "github.com/elC0mpa/cloud-steward/service/gcp/config"
	gcpidentity "github.com/elC0mpa/cloud-steward/service/gcp/identity"
	gcpmonitoring "github.com/elC0mpa/cloud-steward/service/gcp/monitoring"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/api/compute/v1"
)

// NewClientFactory resolves Application Default Credentials once per
// project and shares them across every client
func NewClientFactory() ClientFactory {
	return func(ctx context.Context, creds model.Credentials) (*Clients, error) {
		cfg, err := gcpconfig.NewService(creds.ProjectID)
		if err != nil {
			return nil, err
		}
		opts, err := cfg.ClientOptions(ctx)
		if err != nil {
			return nil, err
		}

		identity, err := gcpidentity.NewService(ctx, cfg.GetProjectID(), opts...)
		if err != nil {
			return nil, err
		}
		computeSvc, err := gcpcompute.NewService(ctx, cfg.GetProjectID(), opts...)
		if err != nil {
			return nil, err
		}
		monitoringSvc, err := gcpmonitoring.NewService(ctx, cfg.GetProjectID(), opts...)
		if err != nil {
			return nil, err
		}

		clients := &Clients{
			Identity:   identity,
			Compute:    computeSvc,
			Monitoring: monitoringSvc,
		}
		if creds.BillingAccount != "" {
			billing, err := gcpbilling.NewService(ctx, cfg.GetProjectID(), creds.BillingAccount, opts...)
			if err != nil {
				return nil, err
			}
			clients.Billing = billing
		}
		return clients, nil
	}
}

func NewAdapter(factory ClientFactory, collector discovery.CollectorService, logger *zap.Logger) *adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adapter{
		factory:   factory,
		collector: collector,
		logger:    logger.Named("gcp"),
		clients:   make(map[string]*Clients),
	}
}

func (a *adapter) Provider() model.Provider {
	return model.ProviderGCP
}

// ListResources implements service.DiscoveryAdapter. Cloud SQL is not
// listed, so the database category is skipped by the collector.
func (a *adapter) ListResources(ctx context.Context, creds model.Credentials, categories []model.Category) (*model.DiscoveryResult, error) {
	c, err := a.clientsFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	info, err := c.Identity.GetAccountInfo(ctx)
	if err != nil {
		return nil, discovery.IdentityFailure("get project", err, gcpconfig.ClassifyError)
	}
	a.logger.Debug("listing resources",
		zap.String("project", info.AccountID),
		zap.String("project_name", info.AccountName))

	return a.collector.Collect(ctx, categories, fetchers(c), gcpconfig.ClassifyError), nil
}

// Sources implements service.ProviderAdapter. Recommender is not wired, so
// there is no rightsizing source.
func (a *adapter) Sources(ctx context.Context, creds model.Credentials) (*service.ProviderSources, error) {
	c, err := a.clientsFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	sources := &service.ProviderSources{
		Metrics:      c.Monitoring,
		Reservations: c.Compute,
	}
	if c.Billing != nil {
		sources.Billing = c.Billing
		sources.History = c.Billing
	}
	return sources, nil
}

// Close releases every cached BigQuery client
func (a *adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for key, c := range a.clients {
		if c.Billing != nil {
			errs = append(errs, c.Billing.Close())
		}
		delete(a.clients, key)
	}
	return errors.Join(errs...)
}

func (a *adapter) clientsFor(ctx context.Context, creds model.Credentials) (*Clients, error) {
	key := creds.ProjectID + "|" + creds.BillingAccount

	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[key]; ok {
		return c, nil
	}
	c, err := a.factory(ctx, creds)
	if err != nil {
		return nil, err
	}
	a.clients[key] = c
	return c, nil
}

func fetchers(c *Clients) map[model.Category]discovery.Fetcher {
	return map[model.Category]discovery.Fetcher{
		model.ResourceCompute: func(ctx context.Context) ([]model.RawRecord, error) {
			instances, err := c.Compute.ListInstances(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(instances, func(i *compute.Instance, _ int) model.RawRecord {
				return model.GCPInstance{Instance: i}
			}), nil
		},
		model.ResourceStorage: func(ctx context.Context) ([]model.RawRecord, error) {
			disks, err := c.Compute.ListDisks(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(disks, func(d *compute.Disk, _ int) model.RawRecord {
				return model.GCPDisk{Disk: d}
			}), nil
		},
		model.ResourceNetwork: func(ctx context.Context) ([]model.RawRecord, error) {
			addresses, err := c.Compute.ListAddresses(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(addresses, func(addr *compute.Address, _ int) model.RawRecord {
				return model.GCPAddress{Address: addr}
			}), nil
		},
	}
}
