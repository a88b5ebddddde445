package azurecostmanagement

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/elC0mpa/cloud-steward/model"
)

const (
	costColumn     = "totalCost"
	serviceColumn  = "ServiceName"
	currencyColumn = "Currency"
)

type service struct {
	subscriptionID string
	client         *armcostmanagement.QueryClient
	now            func() time.Time
}

type CostManagementService interface {
	GetMonthCostsByService(ctx context.Context, endDate time.Time) (*model.CostInfo, string, error)

	// MonthToDate implements service.BillingSource
	MonthToDate(ctx context.Context) (*model.SpendSummary, error)
	// MonthlyTotals implements service.SpendHistorySource
	MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error)
}
