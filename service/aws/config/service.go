package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/elC0mpa/cloud-steward/model"
)

func NewService() *service {
	return &service{}
}

// GetAWSCfg loads the default credential chain for the region and profile.
// The SDK retryer is limited to a single attempt because callers retry
// through service/retry with their own classification.
func (s *service) GetAWSCfg(ctx context.Context, creds model.Credentials) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(1),
	}
	if creds.Region != "" {
		opts = append(opts, config.WithRegion(creds.Region))
	}
	if creds.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(creds.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, &model.AuthenticationError{Op: "load aws config", Err: fmt.Errorf("failed to load aws config: %w", err)}
	}
	if cfg.Region == "" {
		return aws.Config{}, model.NewValidationError("region", "no aws region configured")
	}
	return cfg, nil
}
