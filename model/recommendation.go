package model

import "time"

// RecommendationType names the rule that produced a recommendation
type RecommendationType string

const (
	RecommendationRightsizing      RecommendationType = "rightsizing"
	RecommendationUnderutilized    RecommendationType = "underutilized"
	RecommendationScaling          RecommendationType = "scaling"
	RecommendationUnusedResource   RecommendationType = "unused_resource"
	RecommendationReservedInstance RecommendationType = "reserved_instance"
)

// Confidence of a recommendation
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Effort needed to apply a recommendation
type Effort string

const (
	EffortLow     Effort = "low"
	EffortMedium  Effort = "medium"
	EffortComplex Effort = "complex"
)

// RecommendationStatus is pending until an external decision makes it terminal
type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationApplied   RecommendationStatus = "applied"
	RecommendationDismissed RecommendationStatus = "dismissed"
)

// ParseRecommendationStatus validates a user supplied status
func ParseRecommendationStatus(s string) (RecommendationStatus, bool) {
	switch RecommendationStatus(s) {
	case RecommendationPending, RecommendationApplied, RecommendationDismissed:
		return RecommendationStatus(s), true
	}
	return "", false
}

// Terminal reports whether the status is a final decision
func (s RecommendationStatus) Terminal() bool {
	return s == RecommendationApplied || s == RecommendationDismissed
}

// OptimizationRecommendation is an actionable change produced by the analyzer.
// MonthlySavings is CurrentCost - OptimizedCost except for reserved_instance,
// where it is an independent estimate and ResourceID is a synthetic group key.
type OptimizationRecommendation struct {
	ID             string               `json:"id"`
	AccountID      string               `json:"account_id"`
	Type           RecommendationType   `json:"type"`
	ResourceID     string               `json:"resource_id"`
	CurrentCost    float64              `json:"current_cost"`
	OptimizedCost  float64              `json:"optimized_cost"`
	MonthlySavings float64              `json:"monthly_savings"`
	Confidence     Confidence           `json:"confidence"`
	Effort         Effort               `json:"effort"`
	Status         RecommendationStatus `json:"status"`
	Details        map[string]any       `json:"details,omitempty"`
	Fingerprint    string               `json:"fingerprint"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Key identifies the resource+type pair a decision applies to
func (r OptimizationRecommendation) Key() string {
	return string(r.Type) + "|" + r.ResourceID
}

// RightsizingSignal is a provider-native rightsizing suggestion passed through as-is
type RightsizingSignal struct {
	ResourceID    string
	CurrentSize   string
	TargetSize    string
	CurrentCost   float64
	OptimizedCost float64
	Confidence    Confidence
}

// Decision is a terminal status recorded against a (type, resource) pair
// together with the fingerprint of the recommendation it was taken on.
type Decision struct {
	Status      RecommendationStatus `json:"status"`
	Fingerprint string               `json:"fingerprint"`
	DecidedAt   time.Time            `json:"decided_at"`
}
