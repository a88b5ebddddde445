package gcpbilling

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/elC0mpa/cloud-steward/model"
)

// exportDataset is the dataset the billing export is configured to write to
const exportDataset = "billing_export"

type service struct {
	projectID      string
	billingAccount string
	bqClient       *bigquery.Client
	now            func() time.Time
}

type BillingService interface {
	GetMonthCostsByService(ctx context.Context, endDate time.Time) (*model.CostInfo, string, error)
	Close() error

	// MonthToDate implements service.BillingSource
	MonthToDate(ctx context.Context) (*model.SpendSummary, error)
	// MonthlyTotals implements service.SpendHistorySource
	MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error)
}
