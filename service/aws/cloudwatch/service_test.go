package awscloudwatch

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	u := summarize([]types.Datapoint{
		{Average: aws.Float64(4), Maximum: aws.Float64(18)},
		{Average: aws.Float64(2), Maximum: aws.Float64(31)},
		{Maximum: aws.Float64(99)},
		{Average: aws.Float64(6), Maximum: aws.Float64(12)},
	})

	assert.Equal(t, 3, u.Datapoints)
	assert.InDelta(t, 4.0, u.Average, 1e-9)
	assert.InDelta(t, 31.0, u.Maximum, 1e-9)

	empty := summarize(nil)
	assert.Zero(t, empty.Datapoints)
	assert.Zero(t, empty.Average)
}

func TestCPUUtilizationIgnoresOtherSubtypes(t *testing.T) {
	s := &service{}

	u, err := s.CPUUtilization(context.Background(), model.Resource{
		ID:       "vol-1",
		Provider: model.ProviderAWS,
		Subtype:  model.SubtypeEBSVolume,
	}, 0)

	require.NoError(t, err)
	assert.Zero(t, u.Datapoints)
}
