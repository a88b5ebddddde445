package azureconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/stretchr/testify/assert"
)

func responseError(status int, code string) error {
	req := httptest.NewRequest(http.MethodGet, "https://management.azure.com/subscriptions/sub", nil)
	return &azcore.ResponseError{
		ErrorCode:  code,
		StatusCode: status,
		RawResponse: &http.Response{
			StatusCode: status,
			Request:    req,
			Body:       http.NoBody,
		},
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"authorization failed", responseError(http.StatusForbidden, "AuthorizationFailed"), model.IsAuthentication},
		{"expired token on 400", responseError(http.StatusBadRequest, "ExpiredAuthenticationToken"), model.IsAuthentication},
		{"throttled", responseError(http.StatusTooManyRequests, "TooManyRequests"), model.IsNetwork},
		{"gateway timeout", responseError(http.StatusGatewayTimeout, "GatewayTimeout"), model.IsNetwork},
		{"deadline", context.DeadlineExceeded, model.IsNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(ClassifyError("list disks", tt.err)))
		})
	}

	notFound := ClassifyError("get disk", responseError(http.StatusNotFound, "ResourceNotFound"))
	assert.False(t, model.IsRetryable(notFound))
	assert.False(t, model.IsAuthentication(notFound))
	assert.NoError(t, ClassifyError("op", nil))
}
