package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/ledgerline/ledgerline/internal/plaid"
)

// LoadPlaidConfig loads Plaid configuration from viper (config file or
// LEDGERLINE_ env vars), falling back to PLAID_* environment variables.
// The environment defaults to sandbox.
func LoadPlaidConfig() plaid.Config {
	config := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}

	if config.ClientID == "" {
		config.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if config.Secret == "" {
		config.Secret = os.Getenv("PLAID_SECRET")
	}
	if config.Environment == "" {
		config.Environment = os.Getenv("PLAID_ENVIRONMENT")
	}
	if config.AccessToken == "" {
		config.AccessToken = os.Getenv("PLAID_ACCESS_TOKEN")
	}

	if config.Environment == "" {
		config.Environment = "sandbox"
	}
	return config
}
