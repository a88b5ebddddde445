package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/analyzer"
	"github.com/elC0mpa/cloud-steward/service/discovery"
	"github.com/elC0mpa/cloud-steward/service/inventory"
	"github.com/elC0mpa/cloud-steward/service/notify"
	"github.com/elC0mpa/cloud-steward/service/orchestrator"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/elC0mpa/cloud-steward/service/spend"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STEWARD_STORE_PATH
const EnvPrefix = "STEWARD"

// DefaultFile is the config file looked up in the working directory
const DefaultFile = "steward.yaml"

// Providers holds the credentials of the default accounts. An account is
// derived for each provider that is configured here.
type Providers struct {
	AWS struct {
		Region  string `mapstructure:"region"`
		Profile string `mapstructure:"profile"`
	} `mapstructure:"aws"`

	GCP struct {
		ProjectID      string `mapstructure:"project_id"`
		BillingAccount string `mapstructure:"billing_account"`
	} `mapstructure:"gcp"`

	Azure struct {
		SubscriptionID string `mapstructure:"subscription_id"`
	} `mapstructure:"azure"`
}

// Account is an explicitly configured cloud account
type Account struct {
	ID          string            `mapstructure:"id" validate:"required"`
	Provider    model.Provider    `mapstructure:"provider" validate:"required,oneof=aws azure gcp"`
	Credentials model.Credentials `mapstructure:"credentials"`
}

// Logging selects the zap preset
type Logging struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// Config is the full runtime configuration
type Config struct {
	Logging      Logging                     `mapstructure:"logging"`
	Store        inventory.Config            `mapstructure:"store"`
	Discovery    discovery.Config            `mapstructure:"discovery"`
	Analyzer     analyzer.Config             `mapstructure:"analyzer"`
	Orchestrator orchestrator.Config         `mapstructure:"orchestrator"`
	Spend        spend.Config                `mapstructure:"spend"`
	Notify       notify.Config               `mapstructure:"notify"`
	Channels     []model.NotificationChannel `mapstructure:"channels"`
	Providers    Providers                   `mapstructure:"providers"`
	Accounts     []Account                   `mapstructure:"accounts" validate:"dive"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	cfg := Config{
		Logging:      Logging{Level: "warn"},
		Store:        inventory.DefaultConfig(),
		Discovery:    discovery.DefaultConfig(),
		Analyzer:     analyzer.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
		Spend:        spend.DefaultConfig(),
		Notify:       notify.DefaultConfig(),
	}
	cfg.Providers.AWS.Region = "us-east-1"
	return cfg
}

// Load reads defaults, then the config file, then STEWARD_* environment
// variables. A missing default file is not an error; a missing explicit one is.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v, Default())

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	for i, a := range cfg.Accounts {
		if p, ok := model.ParseProvider(string(a.Provider)); ok {
			cfg.Accounts[i].Provider = p
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it
// even when no config file mentions it
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)

	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.in_memory", d.Store.InMemory)
	v.SetDefault("store.sync_writes", d.Store.SyncWrites)

	v.SetDefault("discovery.concurrency", d.Discovery.Concurrency)
	v.SetDefault("discovery.call_timeout", d.Discovery.CallTimeout)
	setRetryDefaults(v, "discovery.retry", d.Discovery.Retry)

	a := d.Analyzer
	v.SetDefault("analyzer.underutilized_avg", a.UnderutilizedAvg)
	v.SetDefault("analyzer.underutilized_max", a.UnderutilizedMax)
	v.SetDefault("analyzer.high_confidence_avg", a.HighConfidenceAvg)
	v.SetDefault("analyzer.scaling_avg", a.ScalingAvg)
	v.SetDefault("analyzer.scaling_max", a.ScalingMax)
	v.SetDefault("analyzer.scaling_factor", a.ScalingFactor)
	v.SetDefault("analyzer.reserved_savings_rate", a.ReservedSavingsRate)
	v.SetDefault("analyzer.reserved_min_group", a.ReservedMinGroup)
	v.SetDefault("analyzer.window", a.Window)
	v.SetDefault("analyzer.max_resources_per_run", a.MaxResourcesPerRun)
	v.SetDefault("analyzer.concurrency", a.Concurrency)
	v.SetDefault("analyzer.fetch_timeout", a.FetchTimeout)
	setRetryDefaults(v, "analyzer.retry", a.Retry)

	v.SetDefault("orchestrator.account_concurrency", d.Orchestrator.AccountConcurrency)
	v.SetDefault("orchestrator.status_write_timeout", d.Orchestrator.StatusWriteTimeout)
	v.SetDefault("orchestrator.run_timeout", d.Orchestrator.RunTimeout)

	v.SetDefault("spend.top_services", d.Spend.TopServices)
	v.SetDefault("spend.history_months", d.Spend.HistoryMonths)
	setRetryDefaults(v, "spend.retry", d.Spend.Retry)

	v.SetDefault("notify.smtp.host", d.Notify.SMTP.Host)
	v.SetDefault("notify.smtp.port", d.Notify.SMTP.Port)
	v.SetDefault("notify.smtp.username", d.Notify.SMTP.Username)
	v.SetDefault("notify.smtp.password", d.Notify.SMTP.Password)
	v.SetDefault("notify.smtp.from", d.Notify.SMTP.From)
	v.SetDefault("notify.timeout", d.Notify.Timeout)
	v.SetDefault("notify.max_field_length", d.Notify.MaxFieldLength)
	setRetryDefaults(v, "notify.retry", d.Notify.Retry)

	v.SetDefault("providers.aws.region", d.Providers.AWS.Region)
	v.SetDefault("providers.aws.profile", d.Providers.AWS.Profile)
	v.SetDefault("providers.gcp.project_id", d.Providers.GCP.ProjectID)
	v.SetDefault("providers.gcp.billing_account", d.Providers.GCP.BillingAccount)
	v.SetDefault("providers.azure.subscription_id", d.Providers.Azure.SubscriptionID)
}

func setRetryDefaults(v *viper.Viper, prefix string, cfg retry.Config) {
	v.SetDefault(prefix+".max_attempts", cfg.MaxAttempts)
	v.SetDefault(prefix+".base_delay", cfg.BaseDelay)
	v.SetDefault(prefix+".multiplier", cfg.Multiplier)
	v.SetDefault(prefix+".max_delay", cfg.MaxDelay)
	v.SetDefault(prefix+".jitter_ceiling", cfg.JitterCeiling)
}
