package azureconfig

import (
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/elC0mpa/cloud-steward/model"
)

var authErrorCodes = map[string]bool{
	"AuthenticationFailed":            true,
	"AuthorizationFailed":             true,
	"InvalidAuthenticationToken":      true,
	"ExpiredAuthenticationToken":      true,
	"SubscriptionNotFound":            true,
	"InvalidSubscriptionId":           true,
	"LinkedAuthorizationFailed":       true,
	"DisallowedOperation":             true,
	"RequestDisallowedByPolicy":       true,
	"MissingSubscriptionRegistration": true,
}

// ClassifyError maps Azure SDK errors onto the model error taxonomy
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if model.IsAuthentication(err) || model.IsNetwork(err) || model.IsValidation(err) {
		return err
	}

	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return &model.AuthenticationError{Op: op, Err: err}
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if authErrorCodes[respErr.ErrorCode] {
			return &model.AuthenticationError{Op: op, Err: err}
		}
		if respErr.ErrorCode == "TooManyRequests" || respErr.ErrorCode == "SubscriptionRequestsThrottled" {
			return &model.NetworkError{Op: op, StatusCode: http.StatusTooManyRequests, Err: err}
		}
		return model.ClassifyHTTPStatus(op, respErr.StatusCode, err)
	}

	return model.ClassifyTransport(op, err)
}
