package awscostexplorer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/elC0mpa/cloud-steward/model"
)

const (
	costsAggregation = "UnblendedCost"
	dateLayout       = "2006-01-02"
)

type service struct {
	client *costexplorer.Client
	now    func() time.Time
}

type CostService interface {
	GetMonthCostsByService(ctx context.Context, endDate time.Time) (*model.CostInfo, error)

	// MonthToDate implements service.BillingSource
	MonthToDate(ctx context.Context) (*model.SpendSummary, error)
	// RightsizingSignals implements service.RightsizingSource
	RightsizingSignals(ctx context.Context) ([]model.RightsizingSignal, error)
	// MonthlyTotals implements service.SpendHistorySource
	MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error)
}
