package awsadapter

import (
	"context"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	awscloudwatch "github.com/elC0mpa/cloud-steward/service/aws/cloudwatch"
	awscostexplorer "github.com/elC0mpa/cloud-steward/service/aws/costexplorer"
	awsec2 "github.com/elC0mpa/cloud-steward/service/aws/ec2"
	awselb "github.com/elC0mpa/cloud-steward/service/aws/elb"
	awsrds "github.com/elC0mpa/cloud-steward/service/aws/rds"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	"go.uber.org/zap"
)

// Clients are the per-account AWS service clients
type Clients struct {
	Identity     service.IdentityService
	EC2          awsec2.EC2Service
	ELB          awselb.ELBService
	RDS          awsrds.RDSService
	CloudWatch   awscloudwatch.CloudWatchService
	CostExplorer awscostexplorer.CostService
}

// ClientFactory builds the clients for one set of credentials
type ClientFactory func(ctx context.Context, creds model.Credentials) (*Clients, error)

type adapter struct {
	clients   ClientFactory
	collector discovery.CollectorService
	logger    *zap.Logger
}
