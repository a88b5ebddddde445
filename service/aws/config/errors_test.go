package awsconfig

import (
	"context"
	"errors"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/stretchr/testify/assert"
)

func responseError(status int) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      errors.New("boom"),
		},
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"expired token", &smithy.GenericAPIError{Code: "ExpiredToken"}, model.IsAuthentication},
		{"unauthorized operation", &smithy.GenericAPIError{Code: "UnauthorizedOperation"}, model.IsAuthentication},
		{"throttled", &smithy.GenericAPIError{Code: "RequestLimitExceeded"}, model.IsNetwork},
		{"http 503", responseError(http.StatusServiceUnavailable), model.IsNetwork},
		{"http 403", responseError(http.StatusForbidden), model.IsAuthentication},
		{"deadline", context.DeadlineExceeded, model.IsNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError("DescribeInstances", tt.err)
			assert.True(t, tt.check(got), "%T %v", got, got)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, ClassifyError("op", nil))
	assert.False(t, model.IsRetryable(ClassifyError("op", &smithy.GenericAPIError{Code: "InvalidParameterValue"})))
}
