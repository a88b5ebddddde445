package awsec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
)

func NewService(awsconfig aws.Config) *service {
	client := ec2.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

// ListInstances returns every instance that has not been terminated
func (s *service) ListInstances(ctx context.Context) ([]types.Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"pending", "running", "stopping", "stopped"},
			},
		},
	}

	var instances []types.Instance
	paginator := ec2.NewDescribeInstancesPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconfig.ClassifyError("DescribeInstances", err)
		}
		for _, reservation := range page.Reservations {
			instances = append(instances, reservation.Instances...)
		}
	}

	return instances, nil
}

func (s *service) ListVolumes(ctx context.Context) ([]types.Volume, error) {
	var volumes []types.Volume
	paginator := ec2.NewDescribeVolumesPaginator(s.client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsconfig.ClassifyError("DescribeVolumes", err)
		}
		volumes = append(volumes, page.Volumes...)
	}

	return volumes, nil
}

func (s *service) ListAddresses(ctx context.Context) ([]types.Address, error) {
	output, err := s.client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, awsconfig.ClassifyError("DescribeAddresses", err)
	}

	return output.Addresses, nil
}

// ActiveReservations counts active reserved instances per instance type
func (s *service) ActiveReservations(ctx context.Context) (map[string]int, error) {
	output, err := s.client.DescribeReservedInstances(ctx, &ec2.DescribeReservedInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("state"),
				Values: []string{string(types.ReservedInstanceStateActive)},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe reserved instances: %w", awsconfig.ClassifyError("DescribeReservedInstances", err))
	}

	coverage := make(map[string]int)
	for _, ri := range output.ReservedInstances {
		coverage[string(ri.InstanceType)] += int(aws.ToInt32(ri.InstanceCount))
	}

	return coverage, nil
}
