package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/elC0mpa/cloud-steward/config"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type emptyAdapter struct{}

func (emptyAdapter) Provider() model.Provider { return model.ProviderAWS }

func (emptyAdapter) ListResources(context.Context, model.Credentials, []model.Category) (*model.DiscoveryResult, error) {
	return &model.DiscoveryResult{}, nil
}

func (emptyAdapter) Sources(context.Context, model.Credentials) (*service.ProviderSources, error) {
	return &service.ProviderSources{}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Store = inventory.InMemoryConfig()
	cfg.Accounts = []config.Account{{ID: "prod", Provider: model.ProviderAWS, Credentials: model.Credentials{Region: "eu-west-1"}}}
	return &cfg
}

func TestNew_RegistersConfiguredAccounts(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx, testConfig(), zaptest.NewLogger(t), Options{Adapters: []service.ProviderAdapter{emptyAdapter{}}})
	require.NoError(t, err)
	defer rt.Close()

	ids, err := rt.AccountIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aws-default", "prod"}, ids)

	account, err := rt.Store.GetAccount(ctx, "prod")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", account.Credentials.Region)
}

func TestRegisterAccounts_KeepsSyncStatus(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx, testConfig(), zaptest.NewLogger(t), Options{Adapters: []service.ProviderAdapter{emptyAdapter{}}})
	require.NoError(t, err)
	defer rt.Close()

	res, err := rt.Orchestrator.Sync(ctx, model.SyncRequest{AccountID: "prod"})
	require.NoError(t, err)
	assert.Equal(t, model.AccountConnected, res.Status)

	require.NoError(t, rt.registerAccounts(ctx))

	account, err := rt.Store.GetAccount(ctx, "prod")
	require.NoError(t, err)
	assert.Equal(t, model.AccountConnected, account.Status)
	require.NotNil(t, account.LastSyncedAt)
	assert.WithinDuration(t, time.Now(), *account.LastSyncedAt, time.Minute)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.Logging{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = NewLogger(config.Logging{Level: "chatty"})
	assert.Error(t, err)
}
