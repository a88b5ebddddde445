package awscloudwatch

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/elC0mpa/cloud-steward/model"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
)

func NewService(awsconfig aws.Config) *service {
	client := cloudwatch.NewFromConfig(awsconfig)
	return &service{
		client: client,
		now:    time.Now,
	}
}

// CPUUtilization returns the daily CPU averages and peaks of an EC2 instance
// over window. Resources that are not EC2 instances have no datapoints.
func (s *service) CPUUtilization(ctx context.Context, r model.Resource, window time.Duration) (*model.Utilization, error) {
	if r.Provider != model.ProviderAWS || r.Subtype != model.SubtypeEC2Instance {
		return &model.Utilization{}, nil
	}

	end := s.now().UTC()
	output, err := s.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []types.Dimension{
			{
				Name:  aws.String("InstanceId"),
				Value: aws.String(r.ID),
			},
		},
		StartTime:  aws.Time(end.Add(-window)),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(int32(metricPeriod.Seconds())),
		Statistics: []types.Statistic{types.StatisticAverage, types.StatisticMaximum},
	})
	if err != nil {
		return nil, awsconfig.ClassifyError("GetMetricStatistics", err)
	}

	return summarize(output.Datapoints), nil
}

func summarize(datapoints []types.Datapoint) *model.Utilization {
	u := &model.Utilization{}
	var sum float64
	for _, dp := range datapoints {
		if dp.Average == nil {
			continue
		}
		sum += *dp.Average
		u.Datapoints++
		if peak := aws.ToFloat64(dp.Maximum); peak > u.Maximum {
			u.Maximum = peak
		}
	}
	if u.Datapoints > 0 {
		u.Average = sum / float64(u.Datapoints)
	}
	return u
}
