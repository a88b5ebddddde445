package pricing

// Resource kinds understood by the estimator
const (
	KindCompute      = "compute"
	KindStorage      = "storage"
	KindDatabase     = "database"
	KindLoadBalancer = "load-balancer"
	KindPublicIP     = "public-ip"
)

// KindTable prices one resource kind. For per-GB kinds Sizes holds a rate per
// GB-month and the estimate is rate * max(extra, FloorGB).
type KindTable struct {
	Sizes    map[string]float64
	Fallback float64
	PerGB    bool
	FloorGB  float64
}

// Table maps a resource kind onto its price table
type Table map[string]KindTable

type service struct {
	table Table
}

// Estimator is the table-backed cost estimator. It satisfies service.CostEstimator.
type Estimator interface {
	Estimate(kind, size string, extra float64) float64
}
