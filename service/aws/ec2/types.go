package awsec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type service struct {
	client *ec2.Client
}

type EC2Service interface {
	ListInstances(ctx context.Context) ([]types.Instance, error)
	ListVolumes(ctx context.Context) ([]types.Volume, error)
	ListAddresses(ctx context.Context) ([]types.Address, error)

	// ActiveReservations implements service.ReservationSource
	ActiveReservations(ctx context.Context) (map[string]int, error)
}
