package gcpcompute

import (
	"context"
	"fmt"
	"sort"
	"time"

	gcpconfig "github.com/elC0mpa/cloud-steward/service/gcp/config"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

func NewService(ctx context.Context, projectID string, opts ...option.ClientOption) (*service, error) {
	computeClient, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Compute client: %w", err)
	}

	return &service{
		projectID:     projectID,
		computeClient: computeClient,
		now:           time.Now,
	}, nil
}

// ListInstances lists the instances of every zone with one aggregated call
func (s *service) ListInstances(ctx context.Context) ([]*compute.Instance, error) {
	var instances []*compute.Instance

	err := s.computeClient.Instances.AggregatedList(s.projectID).Pages(ctx, func(page *compute.InstanceAggregatedList) error {
		for _, scope := range sortedScopes(page.Items) {
			instances = append(instances, page.Items[scope].Instances...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", gcpconfig.ClassifyError("aggregated list instances", err))
	}

	return instances, nil
}

func (s *service) ListDisks(ctx context.Context) ([]*compute.Disk, error) {
	var disks []*compute.Disk

	err := s.computeClient.Disks.AggregatedList(s.projectID).Pages(ctx, func(page *compute.DiskAggregatedList) error {
		for _, scope := range sortedScopes(page.Items) {
			disks = append(disks, page.Items[scope].Disks...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list disks: %w", gcpconfig.ClassifyError("aggregated list disks", err))
	}

	return disks, nil
}

// ListAddresses returns the regional and global external addresses.
// Internal addresses are not billed and are left out.
func (s *service) ListAddresses(ctx context.Context) ([]*compute.Address, error) {
	var addresses []*compute.Address
	keep := func(items []*compute.Address) {
		for _, addr := range items {
			if addr != nil && addr.AddressType != "INTERNAL" {
				addresses = append(addresses, addr)
			}
		}
	}

	err := s.computeClient.Addresses.AggregatedList(s.projectID).Pages(ctx, func(page *compute.AddressAggregatedList) error {
		for _, scope := range sortedScopes(page.Items) {
			keep(page.Items[scope].Addresses)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", gcpconfig.ClassifyError("aggregated list addresses", err))
	}

	err = s.computeClient.GlobalAddresses.List(s.projectID).Pages(ctx, func(page *compute.AddressList) error {
		keep(page.Items)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list global addresses: %w", gcpconfig.ClassifyError("list global addresses", err))
	}

	return addresses, nil
}

// ActiveReservations counts the instances reserved by active committed use
// discounts per machine type
func (s *service) ActiveReservations(ctx context.Context) (map[string]int, error) {
	now := s.now()
	coverage := make(map[string]int)

	err := s.computeClient.RegionCommitments.AggregatedList(s.projectID).Pages(ctx, func(page *compute.CommitmentAggregatedList) error {
		for _, scoped := range page.Items {
			for _, c := range scoped.Commitments {
				if !activeCommitment(c, now) {
					continue
				}
				countReservations(c.Reservations, coverage)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commitments: %w", gcpconfig.ClassifyError("aggregated list commitments", err))
	}

	return coverage, nil
}

func activeCommitment(c *compute.Commitment, now time.Time) bool {
	if c == nil || c.Status != "ACTIVE" {
		return false
	}
	end, err := time.Parse(time.RFC3339, c.EndTimestamp)
	if err != nil {
		return true
	}
	return end.After(now)
}

func countReservations(reservations []*compute.Reservation, coverage map[string]int) {
	for _, r := range reservations {
		if r == nil || r.SpecificReservation == nil || r.SpecificReservation.InstanceProperties == nil {
			continue
		}
		machineType := extractResourceName(r.SpecificReservation.InstanceProperties.MachineType)
		if machineType == "" {
			continue
		}
		coverage[machineType] += int(r.SpecificReservation.Count)
	}
}

// sortedScopes keeps aggregated listings in a stable zone order
func sortedScopes[T any](items map[string]T) []string {
	scopes := make([]string, 0, len(items))
	for scope := range items {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// extractResourceName extracts the resource name from a GCP resource URL
// e.g., "https://compute.googleapis.com/compute/v1/projects/my-project/zones/us-central1-a/machineTypes/e2-medium"
// returns "e2-medium"
func extractResourceName(resourceURL string) string {
	for i := len(resourceURL) - 1; i >= 0; i-- {
		if resourceURL[i] == '/' {
			return resourceURL[i+1:]
		}
	}
	return resourceURL
}
