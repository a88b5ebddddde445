package notify

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/slack-go/slack"
)

func (s *service) sendSlack(ctx context.Context, target *url.URL, e model.NotificationEvent) error {
	msg := &slack.WebhookMessage{
		Text: formatText(e),
	}

	err := slack.PostWebhookCustomHTTPContext(ctx, target.String(), s.client, msg)
	if err == nil {
		return nil
	}

	var status slack.StatusCodeError
	if errors.As(err, &status) {
		return model.ClassifyHTTPStatus("slack webhook", status.Code, err)
	}
	var limited *slack.RateLimitedError
	if errors.As(err, &limited) {
		return &model.NetworkError{Op: "slack webhook", StatusCode: http.StatusTooManyRequests, Err: err}
	}
	return model.ClassifyTransport("slack webhook", err)
}
