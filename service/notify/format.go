package notify

import (
	"fmt"
	"strings"

	"github.com/elC0mpa/cloud-steward/model"
)

var titles = map[model.EventType]string{
	model.EventSubmitted:             "Provisioning request submitted",
	model.EventApprovalRequired:      "Approval required",
	model.EventApproved:              "Provisioning request approved",
	model.EventRejected:              "Provisioning request rejected",
	model.EventProvisioningStarted:   "Provisioning started",
	model.EventProvisioningCompleted: "Provisioning completed",
	model.EventProvisioningFailed:    "Provisioning failed",
}

// colors are MessageCard theme colors
var colors = map[model.EventType]string{
	model.EventSubmitted:             "0078D7",
	model.EventApprovalRequired:      "FFB900",
	model.EventApproved:              "107C10",
	model.EventRejected:              "D83B01",
	model.EventProvisioningStarted:   "0078D7",
	model.EventProvisioningCompleted: "107C10",
	model.EventProvisioningFailed:    "A80000",
}

func title(e model.NotificationEvent) string {
	if t, ok := titles[e.Type]; ok {
		return t
	}
	return string(e.Type)
}

type fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func facts(e model.NotificationEvent) []fact {
	out := []fact{
		{Name: "Request", Value: e.RequestID},
		{Name: "Requester", Value: e.Requester},
		{Name: "Resource type", Value: e.ResourceType},
		{Name: "Estimated cost", Value: fmt.Sprintf("$%.2f/month", e.EstimatedCost)},
	}
	if e.Approver != "" {
		out = append(out, fact{Name: "Approver", Value: e.Approver})
	}
	if e.Comments != "" {
		out = append(out, fact{Name: "Comments", Value: e.Comments})
	}
	if e.Error != "" {
		out = append(out, fact{Name: "Error", Value: e.Error})
	}
	return out
}

func formatEmail(e model.NotificationEvent) (subject, body string) {
	subject = fmt.Sprintf("[cloud-steward] %s: %s", title(e), e.RequestID)

	var b strings.Builder
	b.WriteString(title(e))
	b.WriteString("\n\n")
	for _, f := range facts(e) {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	return subject, b.String()
}

func formatText(e model.NotificationEvent) string {
	parts := make([]string, 0, 7)
	for _, f := range facts(e) {
		parts = append(parts, fmt.Sprintf("*%s:* %s", f.Name, f.Value))
	}
	return fmt.Sprintf("*%s*\n%s", title(e), strings.Join(parts, "\n"))
}
