package model

import "strings"

// Provider identifies a cloud vendor
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

// Providers lists every supported provider in display order
var Providers = []Provider{ProviderAWS, ProviderGCP, ProviderAzure}

// ParseProvider maps a user supplied name onto a Provider
func ParseProvider(name string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(name))) {
	case ProviderAWS:
		return ProviderAWS, true
	case ProviderAzure:
		return ProviderAzure, true
	case ProviderGCP:
		return ProviderGCP, true
	}
	return "", false
}

// Credentials is a handle to provider credentials. Secrets are never stored here,
// the SDK default chains (profiles, env vars, managed identity, ADC) resolve them.
type Credentials struct {
	// AWS
	Region  string `json:"region,omitempty" mapstructure:"region"`
	Profile string `json:"profile,omitempty" mapstructure:"profile"`

	// GCP
	ProjectID      string `json:"project_id,omitempty" mapstructure:"project_id"`
	BillingAccount string `json:"billing_account,omitempty" mapstructure:"billing_account"`

	// Azure
	SubscriptionID string `json:"subscription_id,omitempty" mapstructure:"subscription_id"`
}

// AccountInfo represents cloud account/project identity
type AccountInfo struct {
	Provider    string
	AccountID   string
	AccountName string
}
