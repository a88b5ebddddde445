package response

import (
	"time"

	"github.com/elC0mpa/cloud-steward/model"
)

// ServiceCost represents cost for a single service
type ServiceCost struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// CostInfo represents cost data for a time period
type CostInfo struct {
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Services  []ServiceCost `json:"services"`
	Total     float64       `json:"total"`
	Currency  string        `json:"currency"`
}

// TrendSummary provides summary statistics for cost trend
type TrendSummary struct {
	TotalSpend     float64 `json:"total_spend"`
	AverageMonthly float64 `json:"average_monthly"`
	HighestMonth   string  `json:"highest_month"`
	HighestAmount  float64 `json:"highest_amount"`
	LowestMonth    string  `json:"lowest_month"`
	LowestAmount   float64 `json:"lowest_amount"`
}

// CostTrend represents closed monthly totals with summary
type CostTrend struct {
	Months  []CostInfo   `json:"months"`
	Summary TrendSummary `json:"summary"`
}

// SpendReport is a spend report with optional history
type SpendReport struct {
	*model.SpendReport
	History *CostTrend `json:"history,omitempty"`
}

// Resource is the listing view of an inventory row
type Resource struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Subtype     string            `json:"subtype"`
	Region      string            `json:"region"`
	Status      string            `json:"status"`
	Size        string            `json:"size,omitempty"`
	CostMonthly float64           `json:"cost_monthly"`
	Tags        map[string]string `json:"tags,omitempty"`
	Stale       bool              `json:"stale,omitempty"`
	LastUpdated time.Time         `json:"last_updated"`
}

// ResourceList is the inventory of one account
type ResourceList struct {
	AccountID    string     `json:"account_id"`
	Count        int        `json:"count"`
	TotalMonthly float64    `json:"total_monthly"`
	Resources    []Resource `json:"resources"`
}

// RecommendationList is the recommendations of one account
type RecommendationList struct {
	AccountID       string                             `json:"account_id"`
	Count           int                                `json:"count"`
	TotalSavings    float64                            `json:"total_monthly_savings"`
	Recommendations []model.OptimizationRecommendation `json:"recommendations"`
}

// SyncResponse aggregates the results of a sync over one or more accounts
type SyncResponse struct {
	Results []*model.SyncResult `json:"results"`
	Error   string              `json:"error,omitempty"`
}
