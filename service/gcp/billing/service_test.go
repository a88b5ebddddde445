package gcpbilling

import (
	"context"
	"testing"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/stretchr/testify/assert"
)

func TestExportTable(t *testing.T) {
	assert.Equal(t,
		"`acme-prod.billing_export.gcp_billing_export_v1_01ABCD_234567_89EFGH`",
		exportTable("acme-prod", "billing_export", "billingAccounts/01ABCD-234567-89EFGH"))
	assert.Equal(t,
		"`p.d.gcp_billing_export_v1_X_Y`",
		exportTable("p", "d", "X-Y"))
}

func TestNewServiceRequiresBillingAccount(t *testing.T) {
	_, err := NewService(context.Background(), "acme-prod", "")
	assert.True(t, model.IsValidation(err))
}
