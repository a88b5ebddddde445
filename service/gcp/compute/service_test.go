package gcpcompute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/compute/v1"
)

func TestActiveCommitment(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, activeCommitment(&compute.Commitment{Status: "ACTIVE", EndTimestamp: "2026-07-01T00:00:00Z"}, now))
	assert.False(t, activeCommitment(&compute.Commitment{Status: "ACTIVE", EndTimestamp: "2025-06-01T00:00:00Z"}, now))
	assert.False(t, activeCommitment(&compute.Commitment{Status: "EXPIRED", EndTimestamp: "2026-07-01T00:00:00Z"}, now))
	assert.False(t, activeCommitment(nil, now))
}

func TestCountReservations(t *testing.T) {
	coverage := map[string]int{"e2-medium": 1}
	countReservations([]*compute.Reservation{
		{SpecificReservation: &compute.AllocationSpecificSKUReservation{
			Count:              3,
			InstanceProperties: &compute.AllocationSpecificSKUAllocationReservedInstanceProperties{MachineType: "e2-medium"},
		}},
		{SpecificReservation: &compute.AllocationSpecificSKUReservation{
			Count:              2,
			InstanceProperties: &compute.AllocationSpecificSKUAllocationReservedInstanceProperties{MachineType: "zones/us-central1-a/machineTypes/n2-standard-4"},
		}},
		{},
		nil,
	}, coverage)

	assert.Equal(t, map[string]int{"e2-medium": 4, "n2-standard-4": 2}, coverage)
}

func TestSortedScopes(t *testing.T) {
	scopes := sortedScopes(map[string]compute.InstancesScopedList{
		"zones/us-east1-b":     {},
		"zones/europe-west1-c": {},
		"zones/asia-east1-a":   {},
	})
	assert.Equal(t, []string{"zones/asia-east1-a", "zones/europe-west1-c", "zones/us-east1-b"}, scopes)
	assert.Equal(t, "e2-medium", extractResourceName("projects/p/zones/z/machineTypes/e2-medium"))
}
