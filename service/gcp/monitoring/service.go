package gcpmonitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	gcpconfig "github.com/elC0mpa/cloud-steward/service/gcp/config"
	"github.com/samber/lo"
	"google.golang.org/api/monitoring/v3"
	"google.golang.org/api/option"
)

func NewService(ctx context.Context, projectID string, opts ...option.ClientOption) (*service, error) {
	client, err := monitoring.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}

	return &service{
		projectID: projectID,
		client:    client,
		now:       time.Now,
	}, nil
}

// CPUUtilization reads daily mean and peak CPU of a Compute Engine instance.
// Cloud Monitoring reports a 0-1 ratio, scaled here to a percentage.
func (s *service) CPUUtilization(ctx context.Context, r model.Resource, window time.Duration) (*model.Utilization, error) {
	if r.Provider != model.ProviderGCP || r.Subtype != model.SubtypeGCEInstance {
		return &model.Utilization{}, nil
	}

	means, err := s.series(ctx, r.ID, window, "ALIGN_MEAN")
	if err != nil {
		return nil, err
	}
	peaks, err := s.series(ctx, r.ID, window, "ALIGN_MAX")
	if err != nil {
		return nil, err
	}

	return summarize(means, peaks), nil
}

func (s *service) series(ctx context.Context, instanceID string, window time.Duration, aligner string) ([]float64, error) {
	end := s.now().UTC()
	resp, err := s.client.Projects.TimeSeries.List("projects/" + s.projectID).
		Filter(filter(instanceID)).
		IntervalStartTime(end.Add(-window).Format(time.RFC3339)).
		IntervalEndTime(end.Format(time.RFC3339)).
		AggregationAlignmentPeriod(alignmentPeriod).
		AggregationPerSeriesAligner(aligner).
		Context(ctx).
		Do()
	if err != nil {
		return nil, gcpconfig.ClassifyError("list time series", err)
	}

	var values []float64
	for _, ts := range resp.TimeSeries {
		for _, p := range ts.Points {
			if p == nil || p.Value == nil || p.Value.DoubleValue == nil {
				continue
			}
			values = append(values, *p.Value.DoubleValue*100)
		}
	}
	return values, nil
}

func filter(instanceID string) string {
	return fmt.Sprintf(`metric.type = %q AND resource.labels.instance_id = %q`, cpuMetric, instanceID)
}

func summarize(means, peaks []float64) *model.Utilization {
	u := &model.Utilization{Datapoints: len(means)}
	if len(means) == 0 {
		return u
	}

	var sum float64
	for _, v := range means {
		sum += v
	}
	u.Average = sum / float64(len(means))

	u.Maximum = max(lo.Max(peaks), lo.Max(means))
	return u
}
