package gcpmonitoring

import (
	"context"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"google.golang.org/api/monitoring/v3"
)

const (
	cpuMetric       = "compute.googleapis.com/instance/cpu/utilization"
	alignmentPeriod = "86400s"
)

type service struct {
	projectID string
	client    *monitoring.Service
	now       func() time.Time
}

type MonitoringService interface {
	// CPUUtilization implements service.MetricsFetcher
	CPUUtilization(ctx context.Context, r model.Resource, window time.Duration) (*model.Utilization, error)
}
