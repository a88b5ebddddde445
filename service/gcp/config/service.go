package gcpconfig

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/elC0mpa/cloud-steward/model"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/monitoring/v3"
	"google.golang.org/api/option"
)

func NewService(projectID string) (*service, error) {
	if projectID == "" {
		return nil, model.NewValidationError("project_id", "required for gcp accounts")
	}
	return &service{
		projectID: projectID,
	}, nil
}

// GetCredentials resolves Application Default Credentials: the
// GOOGLE_APPLICATION_CREDENTIALS file, the gcloud ADC login or the metadata
// server of the workload
func (s *service) GetCredentials(ctx context.Context) (*google.Credentials, error) {
	creds, err := google.FindDefaultCredentials(ctx,
		cloudresourcemanager.CloudPlatformReadOnlyScope,
		compute.ComputeReadonlyScope,
		monitoring.MonitoringReadScope,
		bigquery.Scope,
	)
	if err != nil {
		return nil, &model.AuthenticationError{Op: "find default credentials", Err: fmt.Errorf("failed to find GCP credentials: %w", err)}
	}
	return creds, nil
}

// ClientOptions are shared by every API client of the project
func (s *service) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	creds, err := s.GetCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

func (s *service) GetProjectID() string {
	return s.projectID
}
