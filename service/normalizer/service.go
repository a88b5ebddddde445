package normalizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"go.uber.org/zap"
)

// nameTag is the user-assigned tag preferred over provider names and ids
const nameTag = "Name"

func NewService(estimator service.CostEstimator, logger *zap.Logger) *normalizerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &normalizerService{
		estimator: estimator,
		logger:    logger.Named("normalizer"),
	}
}

// Normalize maps one raw record. The returned resource has no LastUpdated or
// SyncState, reconciliation owns those.
func (s *normalizerService) Normalize(accountID string, record model.RawRecord) (model.Resource, error) {
	var (
		r   model.Resource
		err error
	)

	switch rec := record.(type) {
	case model.AWSInstance:
		r, err = s.awsInstance(rec)
	case model.AWSVolume:
		r, err = s.awsVolume(rec)
	case model.AWSAddress:
		r, err = s.awsAddress(rec)
	case model.AWSLoadBalancer:
		r, err = s.awsLoadBalancer(rec)
	case model.AWSDBInstance:
		r, err = s.awsDBInstance(rec)
	case model.AzureVM:
		r, err = s.azureVM(rec)
	case model.AzureDisk:
		r, err = s.azureDisk(rec)
	case model.AzurePublicIP:
		r, err = s.azurePublicIP(rec)
	case model.GCPInstance:
		r, err = s.gcpInstance(rec)
	case model.GCPDisk:
		r, err = s.gcpDisk(rec)
	case model.GCPAddress:
		r, err = s.gcpAddress(rec)
	case nil:
		return model.Resource{}, model.NewValidationError("record", "nil record")
	default:
		return model.Resource{}, model.NewValidationError("record", fmt.Sprintf("unsupported record type %T", record))
	}
	if err != nil {
		return model.Resource{}, err
	}

	r.AccountID = accountID
	r.Provider = record.Provider()
	r.Subtype = record.Subtype()
	if r.Tags == nil {
		r.Tags = map[string]string{}
	}
	if r.Details == nil {
		r.Details = model.Details{}
	}
	return r, nil
}

// NormalizeBatch normalizes every record it can. Malformed records are logged
// and reported, they never abort the batch.
func (s *normalizerService) NormalizeBatch(accountID string, records []model.RawRecord) ([]model.Resource, []error) {
	resources := make([]model.Resource, 0, len(records))
	var errs []error

	for i, record := range records {
		r, err := s.Normalize(accountID, record)
		if err != nil {
			s.logger.Warn("skipping malformed record",
				zap.String("account_id", accountID),
				zap.Int("index", i),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		resources = append(resources, r)
	}

	return resources, errs
}

func (s *normalizerService) estimate(kind, size string, extra float64) float64 {
	if s.estimator == nil {
		return 0
	}
	return s.estimator.Estimate(kind, size, extra)
}

// resolveName prefers the Name tag, then the provider's own name, then the id
func resolveName(tags map[string]string, native, id string) string {
	if name := strings.TrimSpace(tags[nameTag]); name != "" {
		return name
	}
	if native != "" {
		return native
	}
	return id
}

// regionFromZone reduces an availability zone to its region. AWS zones end in
// a letter ("us-east-1a"), GCP zones end in "-<letter>" ("us-central1-a").
func regionFromZone(provider model.Provider, zone string) string {
	if zone == "" {
		return ""
	}

	switch provider {
	case model.ProviderGCP:
		if i := strings.LastIndex(zone, "-"); i > 0 && len(zone)-i == 2 && unicode.IsLetter(rune(zone[i+1])) {
			return zone[:i]
		}
	case model.ProviderAWS:
		last := rune(zone[len(zone)-1])
		if len(zone) > 1 && unicode.IsLetter(last) && unicode.IsDigit(rune(zone[len(zone)-2])) {
			return zone[:len(zone)-1]
		}
	}
	return zone
}

// lastSegment returns the trailing path element of a resource URL or id
func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// resourceGroup extracts the resource group from an Azure resource ID
func resourceGroup(resourceID string) string {
	parts := strings.Split(resourceID, "/")
	for i, part := range parts {
		if strings.EqualFold(part, "resourceGroups") && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func attachmentState(attachments int) string {
	if attachments > 0 {
		return model.AttachmentAttached
	}
	return model.AttachmentUnattached
}

func malformed(subtype, reason string) error {
	return model.NewValidationError(subtype, reason)
}
