package config

import (
	"errors"
	"fmt"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Validate rejects configurations the services could not run with
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return model.NewValidationError("config", err.Error())
	}

	for name, r := range map[string]interface{ Validate() error }{
		"discovery.retry": c.Discovery.Retry,
		"analyzer.retry":  c.Analyzer.Retry,
		"spend.retry":     c.Spend.Retry,
		"notify.retry":    c.Notify.Retry,
	} {
		if err := r.Validate(); err != nil {
			return model.NewValidationError(name, err.Error())
		}
	}

	if c.Analyzer.UnderutilizedAvg > c.Analyzer.UnderutilizedMax {
		return model.NewValidationError("analyzer.underutilized_avg", "must not exceed analyzer.underutilized_max")
	}
	if c.Analyzer.ScalingAvg > c.Analyzer.ScalingMax {
		return model.NewValidationError("analyzer.scaling_avg", "must not exceed analyzer.scaling_max")
	}
	if c.Analyzer.UnderutilizedAvg >= c.Analyzer.ScalingAvg {
		return model.NewValidationError("analyzer.underutilized_avg", "must be below analyzer.scaling_avg")
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return model.NewValidationError("store.path", "required unless store.in_memory is set")
	}

	dupes := lo.FindDuplicatesBy(c.Accounts, func(a Account) string { return a.ID })
	if len(dupes) > 0 {
		return model.NewValidationError("accounts", fmt.Sprintf("duplicate account id %q", dupes[0].ID))
	}
	return nil
}

// CloudAccounts returns the explicit accounts followed by one default account
// per configured provider. AWS is always present since its default
// credential chain needs no settings.
func (c *Config) CloudAccounts() []model.CloudAccount {
	accounts := lo.Map(c.Accounts, func(a Account, _ int) model.CloudAccount {
		return model.CloudAccount{ID: a.ID, Provider: a.Provider, Credentials: a.Credentials}
	})

	taken := lo.SliceToMap(accounts, func(a model.CloudAccount) (string, struct{}) { return a.ID, struct{}{} })
	add := func(account model.CloudAccount) {
		if _, ok := taken[account.ID]; ok {
			return
		}
		accounts = append(accounts, account)
	}

	p := c.Providers
	add(model.CloudAccount{
		ID:          DefaultAccountID(model.ProviderAWS),
		Provider:    model.ProviderAWS,
		Credentials: model.Credentials{Region: p.AWS.Region, Profile: p.AWS.Profile},
	})
	if p.GCP.ProjectID != "" {
		add(model.CloudAccount{
			ID:          DefaultAccountID(model.ProviderGCP),
			Provider:    model.ProviderGCP,
			Credentials: model.Credentials{ProjectID: p.GCP.ProjectID, BillingAccount: p.GCP.BillingAccount},
		})
	}
	if p.Azure.SubscriptionID != "" {
		add(model.CloudAccount{
			ID:          DefaultAccountID(model.ProviderAzure),
			Provider:    model.ProviderAzure,
			Credentials: model.Credentials{SubscriptionID: p.Azure.SubscriptionID},
		})
	}
	return accounts
}

// DefaultAccountID names the account derived from the providers section
func DefaultAccountID(p model.Provider) string {
	return string(p) + "-default"
}

// EnabledChannels returns the channels that are switched on
func (c *Config) EnabledChannels() []model.NotificationChannel {
	return lo.Filter(c.Channels, func(ch model.NotificationChannel, _ int) bool { return ch.Enabled })
}

var errNoAccounts = errors.New("no accounts configured")

// Account returns the configured account with id, or the only account when id is empty
func (c *Config) Account(id string) (model.CloudAccount, error) {
	accounts := c.CloudAccounts()
	if id == "" {
		if len(accounts) == 0 {
			return model.CloudAccount{}, errNoAccounts
		}
		return accounts[0], nil
	}
	account, ok := lo.Find(accounts, func(a model.CloudAccount) bool { return a.ID == id })
	if !ok {
		return model.CloudAccount{}, model.NewValidationError("account", fmt.Sprintf("unknown account %q", id))
	}
	return account, nil
}
