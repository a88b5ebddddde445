package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "steward.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default().Analyzer, cfg.Analyzer)
	assert.Equal(t, 10.0, cfg.Analyzer.UnderutilizedAvg)
	assert.Equal(t, 14*24*time.Hour, cfg.Analyzer.Window)
	assert.Equal(t, ".steward/inventory", cfg.Store.Path)

	accounts := cfg.CloudAccounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, "aws-default", accounts[0].ID)
	assert.Equal(t, "us-east-1", accounts[0].Credentials.Region)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
analyzer:
  underutilized_avg: 7
  window: 72h
discovery:
  retry:
    max_attempts: 5
providers:
  gcp:
    project_id: demo-project
accounts:
  - id: prod
    provider: AWS
    credentials:
      region: eu-west-1
      profile: prod
channels:
  - type: webhook
    enabled: true
    config:
      webhook_url: https://hooks.example.com/steward
      secret: s3cret
  - type: slack
    enabled: false
`)
	t.Setenv("STEWARD_ANALYZER_SCALING_FACTOR", "2")
	t.Setenv("STEWARD_STORE_PATH", "/var/lib/steward")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 7.0, cfg.Analyzer.UnderutilizedAvg)
	assert.Equal(t, 72*time.Hour, cfg.Analyzer.Window)
	assert.Equal(t, 2.0, cfg.Analyzer.ScalingFactor)
	assert.Equal(t, 50.0, cfg.Analyzer.UnderutilizedMax)
	assert.Equal(t, 5, cfg.Discovery.Retry.MaxAttempts)
	assert.Equal(t, "/var/lib/steward", cfg.Store.Path)

	accounts := cfg.CloudAccounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, "prod", accounts[0].ID)
	assert.Equal(t, model.ProviderAWS, accounts[0].Provider)
	assert.Equal(t, "eu-west-1", accounts[0].Credentials.Region)
	assert.Equal(t, "aws-default", accounts[1].ID)
	assert.Equal(t, model.ProviderGCP, accounts[2].Provider)
	assert.Equal(t, "demo-project", accounts[2].Credentials.ProjectID)

	channels := cfg.EnabledChannels()
	require.Len(t, channels, 1)
	assert.Equal(t, model.ChannelWebhook, channels[0].Type)
	assert.Equal(t, "s3cret", channels[0].Config.Secret)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "thresholds inverted", mutate: func(c *Config) { c.Analyzer.UnderutilizedAvg = 60 }},
		{name: "scaling avg above max", mutate: func(c *Config) { c.Analyzer.ScalingAvg = 99 }},
		{name: "zero retry attempts", mutate: func(c *Config) { c.Notify.Retry.MaxAttempts = 0 }},
		{name: "no store path", mutate: func(c *Config) { c.Store.Path = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }},
		{name: "unknown provider", mutate: func(c *Config) {
			c.Accounts = []Account{{ID: "x", Provider: "oracle"}}
		}},
		{name: "duplicate accounts", mutate: func(c *Config) {
			c.Accounts = []Account{{ID: "x", Provider: model.ProviderAWS}, {ID: "x", Provider: model.ProviderGCP}}
		}},
		{name: "bad smtp sender", mutate: func(c *Config) { c.Notify.SMTP.From = "not-an-address" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, model.IsValidation(err))
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestAccount(t *testing.T) {
	cfg := Default()
	cfg.Accounts = []Account{{ID: "prod", Provider: model.ProviderAzure, Credentials: model.Credentials{SubscriptionID: "sub"}}}

	a, err := cfg.Account("")
	require.NoError(t, err)
	assert.Equal(t, "prod", a.ID)

	a, err = cfg.Account("aws-default")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderAWS, a.Provider)

	_, err = cfg.Account("missing")
	assert.True(t, model.IsValidation(err))
}
