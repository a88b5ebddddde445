package awsconfig

import (
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	"github.com/elC0mpa/cloud-steward/model"
)

var authErrorCodes = map[string]bool{
	"AuthFailure":                 true,
	"UnauthorizedOperation":       true,
	"UnrecognizedClientException": true,
	"InvalidClientTokenId":        true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"OptInRequired":               true,
}

var throttleErrorCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"TooManyRequestsException":               true,
	"ProvisionedThroughputExceededException": true,
	"LimitExceededException":                 true,
	"RequestTimeout":                         true,
	"ServiceUnavailable":                     true,
	"InternalError":                          true,
}

// ClassifyError maps AWS SDK errors onto the model error taxonomy
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if model.IsAuthentication(err) || model.IsNetwork(err) || model.IsValidation(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case authErrorCodes[code]:
			return &model.AuthenticationError{Op: op, Err: err}
		case throttleErrorCodes[code]:
			return &model.NetworkError{Op: op, StatusCode: http.StatusTooManyRequests, Err: err}
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return model.ClassifyHTTPStatus(op, respErr.HTTPStatusCode(), err)
	}

	return model.ClassifyTransport(op, err)
}
