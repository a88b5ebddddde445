package model

import "time"

// DateInterval represents a time period for cost analysis
type DateInterval struct {
	Start *string
	End   *string
}

// CostGroup maps service names to their billed amounts
type CostGroup map[string]struct {
	Amount float64
	Unit   string
}

// CostInfo contains billed cost data for a time period
type CostInfo struct {
	DateInterval
	CostGroup
}

// ServiceCost represents cost for a single service
type ServiceCost struct {
	Name   string
	Amount float64
	Unit   string
}

// SpendSummary is the billed month-to-date spend of one account
type SpendSummary struct {
	Provider  Provider
	Start     time.Time
	End       time.Time
	Total     float64
	Currency  string
	ByService CostInfo
}

// SpendReport compares estimated inventory cost with billed spend
type SpendReport struct {
	AccountID        string        `json:"account_id"`
	Provider         Provider      `json:"provider"`
	Resources        int           `json:"resources"`
	EstimatedMonthly float64       `json:"estimated_monthly"`
	BilledToDate     float64       `json:"billed_to_date"`
	ProjectedMonthly float64       `json:"projected_monthly"`
	Variance         float64       `json:"variance"`
	VariancePercent  float64       `json:"variance_percent"`
	Currency         string        `json:"currency"`
	TopServices      []ServiceCost `json:"top_services"`
	GeneratedAt      time.Time     `json:"generated_at"`
}
