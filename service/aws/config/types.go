package awsconfig

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/elC0mpa/cloud-steward/model"
)

type service struct{}

type ConfigService interface {
	GetAWSCfg(ctx context.Context, creds model.Credentials) (aws.Config, error)
}
