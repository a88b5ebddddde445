package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrSyncInProgress is returned when a reconciliation for the same account is already running
var ErrSyncInProgress = errors.New("sync in progress")

// AuthenticationError marks bad or expired credentials. Never retried.
type AuthenticationError struct {
	Op  string
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed during %s: %v", e.Op, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NetworkError marks timeouts, 5xx, 408 and 429 responses. Retried with backoff.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error during %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError marks malformed input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// PartialBatchError reports a batch where some items failed and others succeeded
type PartialBatchError struct {
	Op        string
	Succeeded int
	Failed    int
	Errors    []error
}

func (e *PartialBatchError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("partial %s: %d succeeded, %d failed: %s", e.Op, e.Succeeded, e.Failed, strings.Join(msgs, "; "))
}

func (e *PartialBatchError) Unwrap() []error { return e.Errors }

// NewValidationError builds a ValidationError
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsPartial(err error) bool {
	var target *PartialBatchError
	return errors.As(err, &target)
}

// IsRetryable is the default retry policy: network-class failures and deadline
// expiries are retried, authentication and validation failures never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthentication(err) || IsValidation(err) {
		return false
	}
	if IsNetwork(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ClassifyHTTPStatus maps an HTTP status code onto the taxonomy. Codes outside
// the auth and network classes are returned as a plain wrapped error.
func ClassifyHTTPStatus(op string, status int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthenticationError{Op: op, Err: err}
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return &NetworkError{Op: op, StatusCode: status, Err: err}
	}
	return fmt.Errorf("%s failed with status %d: %w", op, status, err)
}

// ClassifyTransport turns transport level failures (deadline expiry, dial and
// timeout errors) into NetworkErrors and leaves already classified errors alone.
func ClassifyTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsAuthentication(err) || IsNetwork(err) || IsValidation(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &NetworkError{Op: op, Err: err}
	}
	return err
}
