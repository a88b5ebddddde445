package gcpbilling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/elC0mpa/cloud-steward/model"
	gcpconfig "github.com/elC0mpa/cloud-steward/service/gcp/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func NewService(ctx context.Context, projectID, billingAccount string, opts ...option.ClientOption) (*service, error) {
	if billingAccount == "" {
		return nil, model.NewValidationError("billing_account", "required to query the billing export")
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	return &service{
		projectID:      projectID,
		billingAccount: billingAccount,
		bqClient:       bqClient,
		now:            time.Now,
	}, nil
}

// Close closes the BigQuery client
func (s *service) Close() error {
	return s.bqClient.Close()
}

// MonthToDate returns the exported cost of the current month grouped by service
func (s *service) MonthToDate(ctx context.Context) (*model.SpendSummary, error) {
	now := s.now().UTC()
	costs, currency, err := s.GetMonthCostsByService(ctx, now)
	if err != nil {
		return nil, err
	}

	summary := &model.SpendSummary{
		Provider:  model.ProviderGCP,
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
	startDateStr := startDate.Format("2006-01-02")
	// usage dates are compared with <, so the end day itself is included
	endDateStr := endDate.AddDate(0, 0, 1).Format("2006-01-02")

	query := fmt.Sprintf(`
		SELECT
			service.description AS service_name,
			SUM(cost) AS total_cost,
			currency
		FROM %s
		WHERE
			project.id = @projectID
			AND DATE(usage_start_time) >= @startDate
			AND DATE(usage_start_time) < @endDate
		GROUP BY service.description, currency
		HAVING SUM(cost) > 0
		ORDER BY total_cost DESC
	`, s.table())

	it, err := s.read(ctx, query, startDateStr, endDateStr)
	if err != nil {
		return nil, "", err
	}

	costGroups := make(model.CostGroup)
	currency := "USD"
	for {
		var row struct {
			ServiceName string  `bigquery:"service_name"`
			TotalCost   float64 `bigquery:"total_cost"`
			Currency    string  `bigquery:"currency"`
		}

		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read BigQuery row: %w", gcpconfig.ClassifyError("read billing export", err))
		}

		existing := costGroups[row.ServiceName]
		costGroups[row.ServiceName] = struct {
			Amount float64
			Unit   string
		}{
			Amount: existing.Amount + row.TotalCost,
			Unit:   row.Currency,
		}
		if row.Currency != "" {
			currency = row.Currency
		}
	}

	return &model.CostInfo{
		DateInterval: model.DateInterval{
			Start: &startDateStr,
			End:   &endDateStr,
		},
		CostGroup: costGroups,
	}, currency, nil
}

// MonthlyTotals returns the exported total of each of the last months closed
// months, oldest first
func (s *service) MonthlyTotals(ctx context.Context, months int) ([]model.CostInfo, error) {
	if months <= 0 {
		return nil, model.NewValidationError("months", "must be positive")
	}

	now := s.now().UTC()
	startDate := getFirstDayOfMonth(now.AddDate(0, -months, 0))
	endDate := getFirstDayOfMonth(now)

	query := fmt.Sprintf(`
		SELECT
			FORMAT_DATE('%%Y-%%m-01', DATE(usage_start_time)) AS month_start,
			FORMAT_DATE('%%Y-%%m-%%d', DATE_ADD(DATE_TRUNC(DATE(usage_start_time), MONTH), INTERVAL 1 MONTH)) AS month_end,
			SUM(cost) AS total_cost,
			currency
		FROM %s
		WHERE
			project.id = @projectID
			AND DATE(usage_start_time) >= @startDate
			AND DATE(usage_start_time) < @endDate
		GROUP BY month_start, month_end, currency
		ORDER BY month_start
	`, s.table())

	it, err := s.read(ctx, query, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	var monthlyCosts []model.CostInfo
	for {
		var row struct {
			MonthStart string  `bigquery:"month_start"`
			MonthEnd   string  `bigquery:"month_end"`
			TotalCost  float64 `bigquery:"total_cost"`
			Currency   string  `bigquery:"currency"`
		}

		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read BigQuery row: %w", gcpconfig.ClassifyError("read billing export", err))
		}

		monthlyCosts = append(monthlyCosts, model.CostInfo{
			DateInterval: model.DateInterval{
				Start: &row.MonthStart,
				End:   &row.MonthEnd,
			},
			CostGroup: model.CostGroup{
				"Total": {Amount: row.TotalCost, Unit: row.Currency},
			},
		})
	}

	return monthlyCosts, nil
}

func (s *service) read(ctx context.Context, query, startDate, endDate string) (*bigquery.RowIterator, error) {
	q := s.bqClient.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "projectID", Value: s.projectID},
		{Name: "startDate", Value: startDate},
		{Name: "endDate", Value: endDate},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute BigQuery query: %w", gcpconfig.ClassifyError("query billing export", err))
	}
	return it, nil
}

func (s *service) table() string {
	return exportTable(s.projectID, exportDataset, s.billingAccount)
}

// exportTable names the standard usage cost export table,
// project.dataset.gcp_billing_export_v1_<BILLING_ACCOUNT_ID>
func exportTable(projectID, dataset, billingAccount string) string {
	billingAccountID := strings.TrimPrefix(billingAccount, "billingAccounts/")
	billingAccountID = strings.ReplaceAll(billingAccountID, "-", "_")
	return fmt.Sprintf("`%s.%s.gcp_billing_export_v1_%s`", projectID, dataset, billingAccountID)
}

func getFirstDayOfMonth(month time.Time) time.Time {
	return time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
}
