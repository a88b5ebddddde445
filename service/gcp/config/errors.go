package gcpconfig

import (
	"errors"
	"net/http"

	"github.com/elC0mpa/cloud-steward/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var throttleReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"backendError":          true,
	"quotaExceeded":         true,
}

// ClassifyError maps googleapi and oauth2 errors onto the model error taxonomy
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if model.IsAuthentication(err) || model.IsNetwork(err) || model.IsValidation(err) {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &model.AuthenticationError{Op: op, Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if throttleReasons[item.Reason] {
				return &model.NetworkError{Op: op, StatusCode: http.StatusTooManyRequests, Err: err}
			}
		}
		return model.ClassifyHTTPStatus(op, apiErr.Code, err)
	}

	return model.ClassifyTransport(op, err)
}
