package main

import (
	"fmt"
	"os"

	"github.com/fastprodman/arcadeledger/internal/services/paycreds"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const secretEnv = "PAYMENT_CLIENT_SECRET"

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsRotateCmd)
	credentialsCmd.AddCommand(credentialsShowCmd)
	credentialsCmd.AddCommand(credentialsDeactivateCmd)

	f := credentialsRotateCmd.Flags()
	f.String("client-id", "", "Gateway client id")
	f.String("base-url", "", "Gateway API base url")
	f.String("webhook-url", "", "Url the gateway calls back")

	_ = credentialsRotateCmd.MarkFlagRequired("client-id")
	_ = credentialsRotateCmd.MarkFlagRequired("base-url")
	_ = credentialsRotateCmd.MarkFlagRequired("webhook-url")
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage payment gateway credentials",
}

var credentialsRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Store a new credential version and make it active",
	Long: `Store a new credential version and make it the only active one.
The client secret is read from PAYMENT_CLIENT_SECRET so it stays out of
shell history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		clientID, _ := cmd.Flags().GetString("client-id")
		baseURL, _ := cmd.Flags().GetString("base-url")
		webhookURL, _ := cmd.Flags().GetString("webhook-url")

		v, err := deps.creds.Rotate(cmd.Context(), paycreds.RotateRequest{
			ClientID:     clientID,
			ClientSecret: os.Getenv(secretEnv),
			BaseURL:      baseURL,
			WebhookURL:   webhookURL,
		})
		if err != nil {
			return err
		}

		return printJSON(cmd, v)
	},
}

var credentialsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active credential (secret redacted)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := deps.creds.ActiveView(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(cmd, v)
	},
}

var credentialsDeactivateCmd = &cobra.Command{
	Use:   "deactivate CREDENTIAL_ID",
	Short: "Deactivate a credential version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid credential id: %w", err)
		}

		v, err := deps.creds.Deactivate(cmd.Context(), id)
		if err != nil {
			return err
		}

		return printJSON(cmd, v)
	},
}
