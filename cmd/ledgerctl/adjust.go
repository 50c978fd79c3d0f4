package main

import (
	"fmt"
	"strings"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(adjustCmd)

	adjustCmd.Flags().String("kind", "DEPOSIT", "DEPOSIT (credit) or WITHDRAWAL (debit)")
	adjustCmd.Flags().Int64("amount", 0, "Amount in minor units")
	adjustCmd.Flags().String("reason", "", "Why the adjustment is made (required)")
	adjustCmd.Flags().String("admin", "", "Operator id recorded on the entry (required)")

	_ = adjustCmd.MarkFlagRequired("amount")
	_ = adjustCmd.MarkFlagRequired("reason")
	_ = adjustCmd.MarkFlagRequired("admin")
}

var adjustCmd = &cobra.Command{
	Use:   "adjust ACCOUNT_ID",
	Short: "Credit or debit an account manually",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account id: %w", err)
		}

		kind, _ := cmd.Flags().GetString("kind")
		amount, _ := cmd.Flags().GetInt64("amount")
		reason, _ := cmd.Flags().GetString("reason")
		admin, _ := cmd.Flags().GetString("admin")

		st, err := deps.ledger.Adjust(cmd.Context(), balance.AdjustRequest{
			AccountID: id,
			Kind:      entries.Kind(strings.ToUpper(kind)),
			Amount:    amount,
			Reason:    reason,
			AdminID:   admin,
		})
		if err != nil {
			return err
		}

		return printJSON(cmd, st)
	},
}
