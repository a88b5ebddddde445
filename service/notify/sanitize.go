package notify

import (
	"html"
	"strings"
	"unicode"

	"github.com/elC0mpa/cloud-steward/model"
)

var markupStripper = strings.NewReplacer("<", "", ">", "")

// sanitize strips markup and control characters and bounds the length in runes
func (s *service) sanitize(in string) string {
	if in == "" {
		return ""
	}

	out := html.UnescapeString(s.policy.Sanitize(in))
	out = markupStripper.Replace(out)
	out = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, out)
	out = strings.TrimSpace(out)

	if limit := s.cfg.MaxFieldLength; limit > 0 {
		if runes := []rune(out); len(runes) > limit {
			out = string(runes[:limit])
		}
	}
	return out
}

func (s *service) sanitizeEvent(e model.NotificationEvent) model.NotificationEvent {
	e.RequestID = s.sanitize(e.RequestID)
	e.Requester = s.sanitize(e.Requester)
	e.ResourceType = s.sanitize(e.ResourceType)
	e.Approver = s.sanitize(e.Approver)
	e.Comments = s.sanitize(e.Comments)
	e.Error = s.sanitize(e.Error)
	return e
}
