package awscloudwatch

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/elC0mpa/cloud-steward/model"
)

// metricPeriod is the datapoint granularity of every utilization query
const metricPeriod = 24 * time.Hour

type service struct {
	client *cloudwatch.Client
	now    func() time.Time
}

type CloudWatchService interface {
	// CPUUtilization implements service.MetricsFetcher
	CPUUtilization(ctx context.Context, r model.Resource, window time.Duration) (*model.Utilization, error)
}
