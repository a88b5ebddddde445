package azureconfig

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/elC0mpa/cloud-steward/model"
)

func NewService(subscriptionID string) (*service, error) {
	if subscriptionID == "" {
		return nil, model.NewValidationError("subscription_id", "required for azure accounts")
	}

	// DefaultAzureCredential chains environment variables, workload and
	// managed identity, and the Azure CLI login
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, &model.AuthenticationError{Op: "create azure credential", Err: fmt.Errorf("failed to create Azure credential: %w", err)}
	}

	return &service{
		subscriptionID: subscriptionID,
		credential:     credential,
	}, nil
}

func (s *service) GetCredential() azcore.TokenCredential {
	return s.credential
}

func (s *service) GetSubscriptionID() string {
	return s.subscriptionID
}
