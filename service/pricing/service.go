package pricing

import "math"

// NewService builds an estimator over the given table, or the built-in
// on-demand list prices when table is nil
func NewService(table Table) *service {
	if table == nil {
		table = DefaultTable()
	}
	return &service{table: table}
}

// Estimate implements service.CostEstimator. It never fails: unknown sizes
// fall back to the kind's flat default and unknown kinds cost nothing.
func (s *service) Estimate(kind, size string, extra float64) float64 {
	kt, ok := s.table[kind]
	if !ok {
		return 0
	}

	price, ok := kt.Sizes[size]
	if !ok {
		price = kt.Fallback
	}

	if kt.PerGB {
		if math.IsNaN(extra) || math.IsInf(extra, 0) {
			extra = kt.FloorGB
		}
		price *= max(extra, kt.FloorGB)
	}

	return max(price, 0)
}

// DefaultTable returns monthly on-demand list prices (730 hours, us-east / eastus /
// us-central1) for the sizes discovery reports most often
func DefaultTable() Table {
	return Table{
		KindCompute: {
			Fallback: 50.0,
			Sizes: map[string]float64{
				// AWS
				"t2.micro":   8.47,
				"t2.small":   16.79,
				"t2.medium":  33.87,
				"t3.nano":    3.80,
				"t3.micro":   7.59,
				"t3.small":   15.18,
				"t3.medium":  30.37,
				"t3.large":   60.74,
				"t3.xlarge":  121.47,
				"m5.large":   70.08,
				"m5.xlarge":  140.16,
				"m5.2xlarge": 280.32,
				"c5.large":   62.05,
				"c5.xlarge":  124.10,
				"r5.large":   91.98,

				// Azure
				"Standard_B1s":    7.59,
				"Standard_B2s":    30.37,
				"Standard_B2ms":   60.74,
				"Standard_D2s_v3": 70.08,
				"Standard_D4s_v3": 140.16,
				"Standard_D2s_v5": 70.08,
				"Standard_E2s_v3": 91.98,
				"Standard_F2s_v2": 61.32,

				// GCP
				"e2-micro":      6.11,
				"e2-small":      12.23,
				"e2-medium":     24.46,
				"e2-standard-2": 48.92,
				"e2-standard-4": 97.83,
				"n1-standard-1": 24.27,
				"n1-standard-2": 48.55,
				"n2-standard-2": 56.72,
				"n2-standard-4": 113.45,
			},
		},
		KindStorage: {
			PerGB:    true,
			FloorGB:  8,
			Fallback: 0.10,
			Sizes: map[string]float64{
				"gp2":      0.10,
				"gp3":      0.08,
				"io1":      0.125,
				"io2":      0.125,
				"st1":      0.045,
				"sc1":      0.015,
				"standard": 0.05,

				"Standard_LRS":    0.045,
				"StandardSSD_LRS": 0.075,
				"Premium_LRS":     0.135,
				"Premium_ZRS":     0.17,
				"UltraSSD_LRS":    0.12,

				"pd-standard": 0.04,
				"pd-balanced": 0.10,
				"pd-ssd":      0.17,
				"pd-extreme":  0.125,
			},
		},
		KindDatabase: {
			Fallback: 100.0,
			Sizes: map[string]float64{
				"db.t3.micro":  12.41,
				"db.t3.small":  24.82,
				"db.t3.medium": 49.64,
				"db.t3.large":  99.28,
				"db.m5.large":  124.10,
				"db.m5.xlarge": 248.20,
				"db.r5.large":  175.20,
			},
		},
		KindLoadBalancer: {
			Fallback: 18.0,
			Sizes: map[string]float64{
				"application": 16.43,
				"network":     16.43,
				"gateway":     9.13,
			},
		},
		KindPublicIP: {
			Fallback: 3.65,
			Sizes: map[string]float64{
				"Basic":    2.63,
				"Standard": 3.65,
			},
		},
	}
}
