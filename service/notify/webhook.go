package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/elC0mpa/cloud-steward/model"
)

// Webhook headers
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderEvent     = "X-Webhook-Event"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// webhookPayload field order is part of the wire format
type webhookPayload struct {
	Event     model.EventType `json:"event"`
	Data      webhookData     `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type webhookData struct {
	RequestID     string  `json:"requestId"`
	Requester     string  `json:"requester"`
	ResourceType  string  `json:"resourceType"`
	EstimatedCost float64 `json:"estimatedCost"`
	Approver      string  `json:"approver,omitempty"`
	Comments      string  `json:"comments,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Sign returns the X-Webhook-Signature value for body
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header against body in constant time
func Verify(body []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}

func (s *service) webhookBody(e model.NotificationEvent) ([]byte, string, error) {
	ts := s.now().UTC().Format(timestampLayout)
	body, err := json.Marshal(webhookPayload{
		Event: e.Type,
		Data: webhookData{
			RequestID:     e.RequestID,
			Requester:     e.Requester,
			ResourceType:  e.ResourceType,
			EstimatedCost: e.EstimatedCost,
			Approver:      e.Approver,
			Comments:      e.Comments,
			Error:         e.Error,
		},
		Timestamp: ts,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	return body, ts, nil
}

func (s *service) sendWebhook(ctx context.Context, target *url.URL, secret string, e model.NotificationEvent) error {
	body, ts, err := s.webhookBody(e)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set(HeaderSignature, Sign(body, secret))
	headers.Set(HeaderTimestamp, ts)
	headers.Set(HeaderEvent, string(e.Type))

	return s.post(ctx, "webhook", target, body, headers)
}
