package model

import (
	"strings"
	"time"
)

// ResourceType is the coarse category a resource belongs to
type ResourceType string

const (
	ResourceCompute  ResourceType = "compute"
	ResourceStorage  ResourceType = "storage"
	ResourceDatabase ResourceType = "database"
	ResourceNetwork  ResourceType = "network"
)

// Category is a discovery unit. Categories map one-to-one onto resource types.
type Category = ResourceType

// AllCategories is the default discovery scope
var AllCategories = []Category{ResourceCompute, ResourceStorage, ResourceDatabase, ResourceNetwork}

// SyncState tracks a row through a mark-and-sweep cycle
type SyncState string

const (
	SyncActive       SyncState = "active"
	SyncPendingStale SyncState = "pending-stale"
)

// Canonical detail keys. Every subtype writes the subset that applies to it.
const (
	DetailSize             = "size"
	DetailSizeGB           = "sizeGb"
	DetailVolumeType       = "volumeType"
	DetailAttachments      = "attachments"
	DetailAttachmentState  = "attachmentState"
	DetailAvailabilityZone = "availabilityZone"
	DetailEngine           = "engine"
	DetailPublicIP         = "publicIp"
	DetailPrivateIP        = "privateIp"
	DetailScheme           = "scheme"
	DetailLaunchedAt       = "launchedAt"
	DetailResourceGroup    = "resourceGroup"
	DetailPlatform         = "platform"
)

const (
	AttachmentAttached   = "attached"
	AttachmentUnattached = "unattached"
)

// Details is the canonical attribute map of a resource. Keys are the Detail*
// constants and values are strings, numbers or bools.
type Details map[string]any

// String returns the string value stored under key or ""
func (d Details) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the integer value stored under key. JSON round-trips turn ints
// into float64 so both are accepted.
func (d Details) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Resource is the provider-independent representation of a discovered resource
type Resource struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	Name        string            `json:"name"`
	Type        ResourceType      `json:"type"`
	Subtype     string            `json:"subtype"`
	Provider    Provider          `json:"provider"`
	Region      string            `json:"region"`
	Status      string            `json:"status"`
	Details     Details           `json:"details"`
	Tags        map[string]string `json:"tags"`
	CostMonthly float64           `json:"cost_monthly"`
	LastUpdated time.Time         `json:"last_updated"`
	SyncState   SyncState         `json:"sync_state"`
}

// IsRunning reports whether the provider status describes a running machine.
// AWS reports "running", Azure "VM running", GCP "RUNNING".
func (r Resource) IsRunning() bool {
	return strings.Contains(strings.ToLower(r.Status), "running")
}

// Size returns the size label (instance type, VM size, machine type, volume type)
func (r Resource) Size() string {
	return r.Details.String(DetailSize)
}

// ReconcileResult reports the row changes of one reconciliation cycle
type ReconcileResult struct {
	Inserted int  `json:"inserted"`
	Updated  int  `json:"updated"`
	Deleted  int  `json:"deleted"`
	Failed   int  `json:"failed"`
	Swept    bool `json:"swept"`
}

// Utilization is a window of CPU utilization percentages for one resource
type Utilization struct {
	Average    float64
	Maximum    float64
	Datapoints int
}
