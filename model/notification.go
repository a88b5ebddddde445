package model

// ChannelType is a notification transport
type ChannelType string

const (
	ChannelEmail   ChannelType = "email"
	ChannelSlack   ChannelType = "slack"
	ChannelTeams   ChannelType = "teams"
	ChannelWebhook ChannelType = "webhook"
)

// ChannelConfig carries the channel-specific settings
type ChannelConfig struct {
	Recipients []string `json:"recipients,omitempty" mapstructure:"recipients"`
	WebhookURL string   `json:"webhook_url,omitempty" mapstructure:"webhook_url"`
	Secret     string   `json:"-" mapstructure:"secret"`
}

// NotificationChannel is owned by the user-settings collaborator and read-only here
type NotificationChannel struct {
	Type    ChannelType   `json:"type" mapstructure:"type"`
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Config  ChannelConfig `json:"config" mapstructure:"config"`
}

// EventType is a provisioning request lifecycle transition
type EventType string

const (
	EventSubmitted             EventType = "submitted"
	EventApprovalRequired      EventType = "approval_required"
	EventApproved              EventType = "approved"
	EventRejected              EventType = "rejected"
	EventProvisioningStarted   EventType = "provisioning_started"
	EventProvisioningCompleted EventType = "provisioning_completed"
	EventProvisioningFailed    EventType = "provisioning_failed"
)

// NotificationEvent is created per lifecycle transition and never persisted
type NotificationEvent struct {
	Type          EventType `json:"type" validate:"required,oneof=submitted approval_required approved rejected provisioning_started provisioning_completed provisioning_failed"`
	RequestID     string    `json:"requestId" validate:"required"`
	Requester     string    `json:"requester" validate:"required"`
	ResourceType  string    `json:"resourceType" validate:"required"`
	EstimatedCost float64   `json:"estimatedCost" validate:"gte=0"`
	Approver      string    `json:"approver,omitempty"`
	Comments      string    `json:"comments,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// DispatchResult aggregates per-channel delivery outcomes
type DispatchResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}
