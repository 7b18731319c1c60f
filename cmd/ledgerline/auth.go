package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets access",
		Long: `Run the Google OAuth2 flow in your browser and save the refresh token
for future exports. Requires sheets client ID and secret in your
config or GOOGLE_SHEETS_CLIENT_ID / GOOGLE_SHEETS_CLIENT_SECRET.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			clientID := viper.GetString("sheets.client_id")
			if clientID == "" {
				clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
			}
			clientSecret := viper.GetString("sheets.client_secret")
			if clientSecret == "" {
				clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("sheets client ID and secret are required for OAuth2")
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			token, err := sheets.GetOrCreateToken(ctx, sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    filepath.Join(home, ".config", "ledgerline", "sheets-token.json"),
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Google Sheets authorized"))
			if token.RefreshToken != "" {
				fmt.Println(cli.FormatInfo("add the refresh token to your config as sheets.refresh_token:"))
				fmt.Printf("  %s\n", token.RefreshToken)
			}
			return nil
		},
	}
}
