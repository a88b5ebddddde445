package normalizer

import (
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"go.uber.org/zap"
)

type normalizerService struct {
	estimator service.CostEstimator
	logger    *zap.Logger
}

// NormalizerService maps provider-shaped records onto canonical resources
type NormalizerService interface {
	Normalize(accountID string, record model.RawRecord) (model.Resource, error)
	NormalizeBatch(accountID string, records []model.RawRecord) ([]model.Resource, []error)
}
