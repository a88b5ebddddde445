package awsrds

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
)

func NewService(awsconfig aws.Config) *service {
	client := rds.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

func (s *service) ListDBInstances(ctx context.Context) ([]types.DBInstance, error) {
	var instances []types.DBInstance
	paginator := rds.NewDescribeDBInstancesPaginator(s.client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconfig.ClassifyError("DescribeDBInstances", err)
		}
		instances = append(instances, page.DBInstances...)
	}

	return instances, nil
}
