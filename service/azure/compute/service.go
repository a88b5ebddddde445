package azurecompute

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/reservations/armreservations"
	azureconfig "github.com/elC0mpa/cloud-steward/service/azure/config"
)

func NewService(subscriptionID string, credential azcore.TokenCredential) (*service, error) {
	disksClient, err := armcompute.NewDisksClient(subscriptionID, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create disks client: %w", err)
	}

	vmClient, err := armcompute.NewVirtualMachinesClient(subscriptionID, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create VM client: %w", err)
	}

	publicIPClient, err := armnetwork.NewPublicIPAddressesClient(subscriptionID, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create public IP client: %w", err)
	}

	orderClient, err := armreservations.NewReservationOrderClient(credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation order client: %w", err)
	}

	reservationsClient, err := armreservations.NewReservationClient(credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservations client: %w", err)
	}

	return &service{
		subscriptionID:     subscriptionID,
		disksClient:        disksClient,
		vmClient:           vmClient,
		publicIPClient:     publicIPClient,
		orderClient:        orderClient,
		reservationsClient: reservationsClient,
		now:                time.Now,
	}, nil
}

// ListVMs lists every VM in the subscription. StatusOnly makes the listing
// carry the instance view, so the power state needs no extra call per VM.
func (s *service) ListVMs(ctx context.Context) ([]*armcompute.VirtualMachine, error) {
	var vms []*armcompute.VirtualMachine

	pager := s.vmClient.NewListAllPager(&armcompute.VirtualMachinesClientListAllOptions{
		StatusOnly: to.Ptr("true"),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list VMs: %w", azureconfig.ClassifyError("list virtual machines", err))
		}
		vms = append(vms, page.Value...)
	}

	return vms, nil
}

func (s *service) ListDisks(ctx context.Context) ([]*armcompute.Disk, error) {
	var disks []*armcompute.Disk

	pager := s.disksClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list disks: %w", azureconfig.ClassifyError("list disks", err))
		}
		disks = append(disks, page.Value...)
	}

	return disks, nil
}

func (s *service) ListPublicIPs(ctx context.Context) ([]*armnetwork.PublicIPAddress, error) {
	var ips []*armnetwork.PublicIPAddress

	pager := s.publicIPClient.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list public IPs: %w", azureconfig.ClassifyError("list public ips", err))
		}
		ips = append(ips, page.Value...)
	}

	return ips, nil
}

// ActiveReservations counts reserved VM quantity per SKU across every
// succeeded, unexpired reservation order the credential can see
func (s *service) ActiveReservations(ctx context.Context) (map[string]int, error) {
	now := s.now()
	coverage := make(map[string]int)

	pager := s.orderClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list reservation orders: %w", azureconfig.ClassifyError("list reservation orders", err))
		}

		for _, order := range page.Value {
			if !activeOrder(order, now) {
				continue
			}
			if err := s.countReservations(ctx, *order.Name, coverage); err != nil {
				return nil, err
			}
		}
	}

	return coverage, nil
}

func (s *service) countReservations(ctx context.Context, orderID string, coverage map[string]int) error {
	pager := s.reservationsClient.NewListPager(orderID, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list reservations of order %s: %w", orderID, azureconfig.ClassifyError("list reservations", err))
		}
		for _, r := range page.Value {
			if r == nil || r.SKU == nil || r.SKU.Name == nil || r.Properties == nil {
				continue
			}
			if state := r.Properties.ProvisioningState; state != nil && *state != armreservations.ProvisioningStateSucceeded {
				continue
			}
			coverage[*r.SKU.Name] += int(quantity(r.Properties.Quantity))
		}
	}
	return nil
}

func activeOrder(order *armreservations.ReservationOrderResponse, now time.Time) bool {
	if order == nil || order.Name == nil || order.Properties == nil {
		return false
	}
	props := order.Properties
	if props.ProvisioningState == nil || *props.ProvisioningState != armreservations.ProvisioningStateSucceeded {
		return false
	}
	return props.ExpiryDate == nil || props.ExpiryDate.After(now)
}

func quantity(q *int32) int32 {
	if q == nil {
		return 1
	}
	return *q
}
