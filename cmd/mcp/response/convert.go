package response

import (
	"sort"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/samber/lo"
)

// totalKey is the synthetic CostGroup entry carrying a month's billed total
const totalKey = "Total"

// ConvertCostInfo flattens a CostGroup into services sorted by amount. A
// synthetic total entry, when present, becomes Total instead of a service.
func ConvertCostInfo(info *model.CostInfo) *CostInfo {
	if info == nil {
		return nil
	}

	services := make([]ServiceCost, 0, len(info.CostGroup))
	for name, cost := range info.CostGroup {
		if name == totalKey {
			continue
		}
		services = append(services, ServiceCost{Name: name, Amount: cost.Amount, Unit: cost.Unit})
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].Amount == services[j].Amount {
			return services[i].Name < services[j].Name
		}
		return services[i].Amount > services[j].Amount
	})

	out := &CostInfo{
		StartDate: lo.FromPtr(info.Start),
		EndDate:   lo.FromPtr(info.End),
		Services:  services,
		Total:     lo.SumBy(services, func(s ServiceCost) float64 { return s.Amount }),
		Currency:  "USD",
	}
	if total, ok := info.CostGroup[totalKey]; ok {
		out.Total = total.Amount
		if total.Unit != "" {
			out.Currency = total.Unit
		}
	} else if len(services) > 0 && services[0].Unit != "" {
		out.Currency = services[0].Unit
	}
	return out
}

// ConvertTrendData converts closed monthly totals, oldest first, into a trend
// with its highest and lowest months
func ConvertTrendData(data []model.CostInfo) *CostTrend {
	trend := &CostTrend{Months: make([]CostInfo, 0, len(data))}
	for i := range data {
		trend.Months = append(trend.Months, *ConvertCostInfo(&data[i]))
	}
	if len(trend.Months) == 0 {
		return trend
	}

	label := func(c CostInfo) string {
		if len(c.StartDate) >= 7 {
			return c.StartDate[:7]
		}
		return c.StartDate
	}
	highest := lo.MaxBy(trend.Months, func(a, b CostInfo) bool { return a.Total > b.Total })
	lowest := lo.MinBy(trend.Months, func(a, b CostInfo) bool { return a.Total < b.Total })
	total := lo.SumBy(trend.Months, func(c CostInfo) float64 { return c.Total })

	trend.Summary = TrendSummary{
		TotalSpend:     total,
		AverageMonthly: total / float64(len(trend.Months)),
		HighestMonth:   label(highest),
		HighestAmount:  highest.Total,
		LowestMonth:    label(lowest),
		LowestAmount:   lowest.Total,
	}
	return trend
}

// ConvertResources converts an inventory snapshot, optionally filtered by type
func ConvertResources(accountID string, resources []model.Resource, typ model.ResourceType) *ResourceList {
	if typ != "" {
		resources = lo.Filter(resources, func(r model.Resource, _ int) bool { return r.Type == typ })
	}

	list := &ResourceList{
		AccountID: accountID,
		Count:     len(resources),
		Resources: make([]Resource, 0, len(resources)),
	}
	for _, r := range resources {
		list.TotalMonthly += r.CostMonthly
		list.Resources = append(list.Resources, Resource{
			ID:          r.ID,
			Name:        r.Name,
			Type:        string(r.Type),
			Subtype:     r.Subtype,
			Region:      r.Region,
			Status:      r.Status,
			Size:        r.Size(),
			CostMonthly: r.CostMonthly,
			Tags:        r.Tags,
			Stale:       r.SyncState == model.SyncPendingStale,
			LastUpdated: r.LastUpdated,
		})
	}
	return list
}

// ConvertRecommendations wraps recommendations, optionally filtered by status
func ConvertRecommendations(accountID string, recs []model.OptimizationRecommendation, status model.RecommendationStatus) *RecommendationList {
	if status != "" {
		recs = lo.Filter(recs, func(r model.OptimizationRecommendation, _ int) bool { return r.Status == status })
	}
	if recs == nil {
		recs = []model.OptimizationRecommendation{}
	}
	return &RecommendationList{
		AccountID:       accountID,
		Count:           len(recs),
		TotalSavings:    lo.SumBy(recs, func(r model.OptimizationRecommendation) float64 { return r.MonthlySavings }),
		Recommendations: recs,
	}
}
