package awscostexplorer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/elC0mpa/cloud-steward/model"
	awsconfig "github.com/elC0mpa/cloud-steward/service/aws/config"
)

func NewService(awsconfig aws.Config) *service {
	client := costexplorer.NewFromConfig(awsconfig)
	return &service{
		client: client,
		now:    time.Now,
	}
}

// MonthToDate returns the unblended spend of the current month grouped by service
func (s *service) MonthToDate(ctx context.Context) (*model.SpendSummary, error) {
	now := s.now().UTC()
	costs, err := s.GetMonthCostsByService(ctx, now)
	if err != nil {
		return nil, err
	}

	summary := &model.SpendSummary{
		Provider:  model.ProviderAWS,
		Start:     getFirstDayOfMonth(now),
		End:       now,
		ByService: *costs,
	}
	for _, group := range costs.CostGroup {
		summary.Total += group.Amount
		if summary.Currency == "" {
			summary.Currency = group.Unit
		}
	}
	if summary.Currency == "" {
		summary.Currency = "USD"
	}

	return summary, nil
}

func (s *service) GetMonthCostsByService(ctx context.Context, endDate time.Time) (*model.CostInfo, error) {
	start, end := monthPeriod(endDate)

	input := &costexplorer.GetCostAndUsageInput{
		Granularity: types.GranularityMonthly,
		TimePeriod: &types.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Metrics: []string{costsAggregation},
		GroupBy: []types.GroupDefinition{
			{
				Key:  aws.String("SERVICE"),
				Type: types.GroupDefinitionTypeDimension,
			},
		},
	}

	output, err := s.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get cost and usage: %w", awsconfig.ClassifyError("GetCostAndUsage", err))
	}

	costs := &model.CostInfo{
		CostGroup:    model.CostGroup{},
		DateInterval: model.DateInterval{Start: aws.String(start), End: aws.String(end)},
	}
	for _, result := range output.ResultsByTime {
		for name, group := range filterGroups(result.Groups) {
			entry := costs.CostGroup[name]
			entry.Amount += group.Amount
			entry.Unit = group.Unit
			costs.CostGroup[name] = entry
		}
	}

	return costs, nil
}

// MonthlyTotals returns the total spend of each of the last months closed
// months, oldest first.
func (s *service) MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error) {
	if months <= 0 {
		return nil, model.NewValidationError("months", "must be positive")
	}

	now := s.now().UTC()
	input := &costexplorer.GetCostAndUsageInput{
		Granularity: types.GranularityMonthly,
		TimePeriod: &types.DateInterval{
			Start: aws.String(getFirstDayOfMonth(now.AddDate(0, -months, 0)).Format(dateLayout)),
			End:   aws.String(getFirstDayOfMonth(now).Format(dateLayout)),
		},
		Metrics: []string{costsAggregation},
	}

	output, err := s.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly totals: %w", awsconfig.ClassifyError("GetCostAndUsage", err))
	}

	monthlyCosts := make([]model.CostInfo, 0, len(output.ResultsByTime))
	for _, timeResult := range output.ResultsByTime {
		total, ok := timeResult.Total[costsAggregation]
		if !ok {
			continue
		}
		amount, err := strconv.ParseFloat(aws.ToString(total.Amount), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total for %s: %w", aws.ToString(timeResult.TimePeriod.Start), err)
		}

		monthlyCosts = append(monthlyCosts, model.CostInfo{
			DateInterval: model.DateInterval{
				Start: timeResult.TimePeriod.Start,
				End:   timeResult.TimePeriod.End,
			},
			CostGroup: model.CostGroup{
				"Total": {Amount: amount, Unit: aws.ToString(total.Unit)},
			},
		})
	}

	return monthlyCosts, nil
}

// RightsizingSignals returns Cost Explorer's modify recommendations for EC2.
// Terminate recommendations are left to the utilization rules.
func (s *service) RightsizingSignals(ctx context.Context) ([]model.RightsizingSignal, error) {
	input := &costexplorer.GetRightsizingRecommendationInput{
		Service: aws.String("AmazonEC2"),
	}

	var signals []model.RightsizingSignal
	for {
		output, err := s.client.GetRightsizingRecommendation(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get rightsizing recommendations: %w", awsconfig.ClassifyError("GetRightsizingRecommendation", err))
		}

		for _, rec := range output.RightsizingRecommendations {
			if signal, ok := toSignal(rec); ok {
				signals = append(signals, signal)
			}
		}

		if aws.ToString(output.NextPageToken) == "" {
			break
		}
		input.NextPageToken = output.NextPageToken
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i].ResourceID < signals[j].ResourceID })
	return signals, nil
}

func toSignal(rec types.RightsizingRecommendation) (model.RightsizingSignal, bool) {
	if rec.RightsizingType != types.RightsizingTypeModify || rec.CurrentInstance == nil || rec.ModifyRecommendationDetail == nil {
		return model.RightsizingSignal{}, false
	}

	// Cost Explorer lists the default target first
	if len(rec.ModifyRecommendationDetail.TargetInstances) == 0 {
		return model.RightsizingSignal{}, false
	}
	target := rec.ModifyRecommendationDetail.TargetInstances[0]

	current := rec.CurrentInstance
	return model.RightsizingSignal{
		ResourceID:    aws.ToString(current.ResourceId),
		CurrentSize:   ec2InstanceType(current.ResourceDetails),
		TargetSize:    ec2InstanceType(target.ResourceDetails),
		CurrentCost:   parseAmount(current.MonthlyCost),
		OptimizedCost: parseAmount(target.EstimatedMonthlyCost),
		Confidence:    model.ConfidenceMedium,
	}, true
}

func ec2InstanceType(details *types.ResourceDetails) string {
	if details == nil || details.EC2ResourceDetails == nil {
		return ""
	}
	return aws.ToString(details.EC2ResourceDetails.InstanceType)
}

func parseAmount(amount *string) float64 {
	v, err := strconv.ParseFloat(aws.ToString(amount), 64)
	if err != nil {
		return 0
	}
	return v
}

// monthPeriod is the Cost Explorer period from the first of endDate's month
// to endDate. The end is exclusive, so the first day of a month spans one day.
func monthPeriod(endDate time.Time) (string, string) {
	start := getFirstDayOfMonth(endDate)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, endDate.Location())
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return start.Format(dateLayout), end.Format(dateLayout)
}

func getFirstDayOfMonth(month time.Time) time.Time {
	return time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
}

func filterGroups(results []types.Group) model.CostGroup {
	costGroups := model.CostGroup{}

	for _, g := range results {
		metric, ok := g.Metrics[costsAggregation]
		if !ok || metric.Amount == nil || len(g.Keys) == 0 {
			continue
		}
		amount, err := strconv.ParseFloat(*metric.Amount, 64)
		if err != nil || amount == 0 {
			continue
		}
		costGroups[g.Keys[0]] = struct {
			Amount float64
			Unit   string
		}{
			Amount: amount,
			Unit:   aws.ToString(metric.Unit),
		}
	}

	return costGroups
}
