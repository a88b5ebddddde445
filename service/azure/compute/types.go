package azurecompute

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/reservations/armreservations"
)

type service struct {
	subscriptionID     string
	disksClient        *armcompute.DisksClient
	vmClient           *armcompute.VirtualMachinesClient
	publicIPClient     *armnetwork.PublicIPAddressesClient
	orderClient        *armreservations.ReservationOrderClient
	reservationsClient *armreservations.ReservationClient
	now                func() time.Time
}

type ComputeService interface {
	ListVMs(ctx context.Context) ([]*armcompute.VirtualMachine, error)
	ListDisks(ctx context.Context) ([]*armcompute.Disk, error)
	ListPublicIPs(ctx context.Context) ([]*armnetwork.PublicIPAddress, error)

	// ActiveReservations implements service.ReservationSource
	ActiveReservations(ctx context.Context) (map[string]int, error)
}
