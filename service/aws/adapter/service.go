package awsadapter

import (
	"context"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	awscloudwatch "github.com/elC0mpa/cloud-steward/service/aws/cloudwatch"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
	awscostexplorer "github.com/elC0mpa/cloud-steward/service/aws/costexplorer"
	awsec2 "github.com/elC0mpa/cloud-steward/service/aws/ec2"
	awselb "github.com/elC0mpa/cloud-steward/service/aws/elb"
	awsrds "github.com/elC0mpa/cloud-steward/service/aws/rds"
	awssts "github.com/elC0mpa/cloud-steward/service/aws/sts"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// NewClientFactory returns a factory that loads the shared AWS config once
// per call and builds every client from it
func NewClientFactory(cfgService awsconfig.ConfigService) ClientFactory {
	return func(ctx context.Context, creds model.Credentials) (*Clients, error) {
		cfg, err := cfgService.GetAWSCfg(ctx, creds)
		if err != nil {
			return nil, err
		}

		return &Clients{
			Identity:     awssts.NewService(cfg),
			EC2:          awsec2.NewService(cfg),
			ELB:          awselb.NewService(cfg),
			RDS:          awsrds.NewService(cfg),
			CloudWatch:   awscloudwatch.NewService(cfg),
			CostExplorer: awscostexplorer.NewService(cfg),
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
		logger:    logger.Named("aws"),
	}
}

func (a *adapter) Provider() model.Provider {
	return model.ProviderAWS
}

// ListResources implements service.DiscoveryAdapter. The caller identity is
// checked first so bad credentials fail the whole listing at once.
func (a *adapter) ListResources(ctx context.Context, creds model.Credentials, categories []model.Category) (*model.DiscoveryResult, error) {
	c, err := a.clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	info, err := c.Identity.GetAccountInfo(ctx)
	if err != nil {
		return nil, discovery.IdentityFailure("GetCallerIdentity", err, awsconfig.ClassifyError)
	}
	a.logger.Debug("listing resources",
		zap.String("aws_account", info.AccountID),
		zap.String("region", creds.Region))

	return a.collector.Collect(ctx, categories, fetchers(c), awsconfig.ClassifyError), nil
}

// Sources implements service.ProviderAdapter
func (a *adapter) Sources(ctx context.Context, creds model.Credentials) (*service.ProviderSources, error) {
	c, err := a.clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	return &service.ProviderSources{
		Metrics:      c.CloudWatch,
		Rightsizing:  c.CostExplorer,
		Reservations: c.EC2,
		Billing:      c.CostExplorer,
		History:      c.CostExplorer,
	}, nil
}

func fetchers(c *Clients) map[model.Category]discovery.Fetcher {
	return map[model.Category]discovery.Fetcher{
		model.ResourceCompute: func(ctx context.Context) ([]model.RawRecord, error) {
			instances, err := c.EC2.ListInstances(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(instances, func(i ec2types.Instance, _ int) model.RawRecord {
				return model.AWSInstance{Instance: i}
			}), nil
		},
		model.ResourceStorage: func(ctx context.Context) ([]model.RawRecord, error) {
			volumes, err := c.EC2.ListVolumes(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(volumes, func(v ec2types.Volume, _ int) model.RawRecord {
				return model.AWSVolume{Volume: v}
			}), nil
		},
		model.ResourceDatabase: func(ctx context.Context) ([]model.RawRecord, error) {
			dbs, err := c.RDS.ListDBInstances(ctx)
			if err != nil {
				return nil, err
			}
			return lo.Map(dbs, func(db rdstypes.DBInstance, _ int) model.RawRecord {
				return model.AWSDBInstance{DBInstance: db}
			}), nil
		},
		model.ResourceNetwork: func(ctx context.Context) ([]model.RawRecord, error) {
			addresses, err := c.EC2.ListAddresses(ctx)
			if err != nil {
				return nil, err
			}
			lbs, err := c.ELB.ListLoadBalancers(ctx)
			if err != nil {
				return nil, err
			}

			records := make([]model.RawRecord, 0, len(addresses)+len(lbs))
			for _, addr := range addresses {
				records = append(records, model.AWSAddress{Address: addr})
			}
			for _, lb := range lbs {
				records = append(records, model.AWSLoadBalancer{LoadBalancer: lb.LoadBalancer, Tags: lb.Tags})
			}
			return records, nil
		},
	}
}
