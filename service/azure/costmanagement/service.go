package azurecostmanagement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/elC0mpa/cloud-steward/model"
	azureconfig "github.com/elC0mpa/cloud-steward/service/azure/config"
)

func NewService(subscriptionID string, credential azcore.TokenCredential) (*service, error) {
	client, err := armcostmanagement.NewQueryClient(credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}

	return &service{
		subscriptionID: subscriptionID,
		client:         client,
		now:            time.Now,
	}, nil
}

// MonthToDate returns the actual cost of the current month grouped by service
func (s *service) MonthToDate(ctx context.Context) (*model.SpendSummary, error) {
	now := s.now().UTC()
	costs, currency, err := s.GetMonthCostsByService(ctx, now)
	if err != nil {
		return nil, err
	}

	summary := &model.SpendSummary{
		Provider:  model.ProviderAzure,
		Start:     getFirstDayOfMonth(now),
		End:       now,
		Currency:  currency,
		ByService: *costs,
	}
	for _, group := range costs.CostGroup {
		summary.Total += group.Amount
	}

	return summary, nil
}

func (s *service) GetMonthCostsByService(ctx context.Context, endDate time.Time) (*model.CostInfo, string, error) {
	startDate := getFirstDayOfMonth(endDate)

	resp, err := s.client.Usage(ctx, s.scope(), query(startDate, endDate, true), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query costs: %w", azureconfig.ClassifyError("query costs", err))
	}

	startDateStr := startDate.Format("2006-01-02")
	endDateStr := endDate.Format("2006-01-02")
	groups, currency := parseRows(resp.Properties)

	return &model.CostInfo{
		DateInterval: model.DateInterval{
			Start: &startDateStr,
			End:   &endDateStr,
		},
		CostGroup: groups,
	}, currency, nil
}

// MonthlyTotals queries each closed month separately, oldest first
func (s *service) MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error) {
	if months <= 0 {
		return nil, model.NewValidationError("months", "must be positive")
	}

	now := s.now().UTC()
	monthlyCosts := make([]model.CostInfo, 0, months)

	for i := months; i >= 1; i-- {
		monthDate := now.AddDate(0, -i, 0)
		startDate := getFirstDayOfMonth(monthDate)
		endDate := getLastDayOfMonth(monthDate)

		resp, err := s.client.Usage(ctx, s.scope(), query(startDate, endDate, false), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query costs for %s: %w", startDate.Format("2006-01"), azureconfig.ClassifyError("query costs", err))
		}

		groups, currency := parseRows(resp.Properties)
		var totalCost float64
		for _, g := range groups {
			totalCost += g.Amount
		}

		startDateStr := startDate.Format("2006-01-02")
		endDateStr := endDate.Format("2006-01-02")
		monthlyCosts = append(monthlyCosts, model.CostInfo{
			DateInterval: model.DateInterval{
				Start: &startDateStr,
				End:   &endDateStr,
			},
			CostGroup: model.CostGroup{
				"Total": {Amount: totalCost, Unit: currency},
			},
		})
	}

	return monthlyCosts, nil
}

func (s *service) scope() string {
	return fmt.Sprintf("/subscriptions/%s", s.subscriptionID)
}

func query(startDate, endDate time.Time, byService bool) armcostmanagement.QueryDefinition {
	def := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(startDate),
			To:   to.Ptr(endDate),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				costColumn: {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
		},
	}
	if byService {
		def.Dataset.Grouping = []*armcostmanagement.QueryGrouping{
			{
				Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension),
				Name: to.Ptr(serviceColumn),
			},
		}
	}
	return def
}

// parseRows sums the cost column per service. Column positions come from the
// response's column list; ungrouped queries land under "Total".
func parseRows(props *armcostmanagement.QueryProperties) (model.CostGroup, string) {
	groups := make(model.CostGroup)
	currency := "USD"
	if props == nil {
		return groups, currency
	}

	costIdx, serviceIdx, currencyIdx := 0, -1, -1
	for i, col := range props.Columns {
		if col == nil || col.Name == nil {
			continue
		}
		switch {
		case strings.EqualFold(*col.Name, costColumn) || strings.EqualFold(*col.Name, "Cost"):
			costIdx = i
		case strings.EqualFold(*col.Name, serviceColumn):
			serviceIdx = i
		case strings.EqualFold(*col.Name, currencyColumn):
			currencyIdx = i
		}
	}

	for _, row := range props.Rows {
		if costIdx >= len(row) {
			continue
		}
		cost, ok := row[costIdx].(float64)
		if !ok || cost == 0 {
			continue
		}

		name := "Total"
		if serviceIdx >= 0 && serviceIdx < len(row) {
			if v, ok := row[serviceIdx].(string); ok && v != "" {
				name = v
			}
		}
		if currencyIdx >= 0 && currencyIdx < len(row) {
			if v, ok := row[currencyIdx].(string); ok && v != "" {
				currency = v
			}
		}

		existing := groups[name]
		groups[name] = struct {
			Amount float64
			Unit   string
		}{
			Amount: existing.Amount + cost,
			Unit:   currency,
		}
	}

	return groups, currency
}

func getFirstDayOfMonth(month time.Time) time.Time {
	return time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func getLastDayOfMonth(month time.Time) time.Time {
	return time.Date(month.Year(), month.Month()+1, 0, 23, 59, 59, 0, time.UTC)
}
