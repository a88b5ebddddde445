package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/elC0mpa/cloud-steward/model"
)

// messageCard is the legacy Office 365 connector card accepted by Teams incoming webhooks
type messageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	Summary    string        `json:"summary"`
	ThemeColor string        `json:"themeColor,omitempty"`
	Title      string        `json:"title"`
	Sections   []cardSection `json:"sections"`
}

type cardSection struct {
	Facts []fact `json:"facts"`
}

func (s *service) sendTeams(ctx context.Context, target *url.URL, e model.NotificationEvent) error {
	card := messageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    title(e),
		ThemeColor: colors[e.Type],
		Title:      title(e),
		Sections:   []cardSection{{Facts: facts(e)}},
	}

	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to encode teams card: %w", err)
	}

	return s.post(ctx, "teams webhook", target, body, nil)
}

// post sends a JSON body and maps the response status onto the error taxonomy
func (s *service) post(ctx context.Context, op string, target *url.URL, body []byte, headers http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return model.ClassifyTransport(op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.ClassifyHTTPStatus(op, resp.StatusCode, nil)
	}
	return nil
}
