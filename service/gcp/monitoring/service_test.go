package gcpmonitoring

import (
	"context"
	"testing"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	u := summarize([]float64{3, 5, 4}, []float64{20, 41.5, 12})
	assert.Equal(t, 3, u.Datapoints)
	assert.InDelta(t, 4.0, u.Average, 1e-9)
	assert.InDelta(t, 41.5, u.Maximum, 1e-9)

	noPeaks := summarize([]float64{7, 9}, nil)
	assert.InDelta(t, 9.0, noPeaks.Maximum, 1e-9)

	assert.Zero(t, summarize(nil, nil).Datapoints)
}

func TestFilter(t *testing.T) {
	assert.Equal(t,
		`metric.type = "compute.googleapis.com/instance/cpu/utilization" AND resource.labels.instance_id = "4415"`,
		filter("4415"))
}

func TestCPUUtilizationIgnoresOtherSubtypes(t *testing.T) {
	s := &service{}
	u, err := s.CPUUtilization(context.Background(), model.Resource{Provider: model.ProviderGCP, Subtype: model.SubtypePersistentDisk}, 0)
	require.NoError(t, err)
	assert.Zero(t, u.Datapoints)
}
