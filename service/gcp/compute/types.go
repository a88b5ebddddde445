package gcpcompute

import (
	"context"
	"time"

	"google.golang.org/api/compute/v1"
)

type service struct {
	projectID     string
	computeClient *compute.Service
	now           func() time.Time
}

type ComputeService interface {
	ListInstances(ctx context.Context) ([]*compute.Instance, error)
	ListDisks(ctx context.Context) ([]*compute.Disk, error)
	ListAddresses(ctx context.Context) ([]*compute.Address, error)

	// ActiveReservations implements service.ReservationSource
	ActiveReservations(ctx context.Context) (map[string]int, error)
}
