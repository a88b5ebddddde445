package awsrds

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
)

type service struct {
	client *rds.Client
}

type RDSService interface {
	ListDBInstances(ctx context.Context) ([]types.DBInstance, error)
}
