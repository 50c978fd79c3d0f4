package main

import (
	"context"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(withdrawalCmd)
	withdrawalCmd.AddCommand(withdrawalApproveCmd)
	withdrawalCmd.AddCommand(withdrawalRejectCmd)
}

var withdrawalCmd = &cobra.Command{
	Use:   "withdrawal",
	Short: "Review pending withdrawals",
}

var withdrawalApproveCmd = &cobra.Command{
	Use:   "approve ENTRY_ID",
	Short: "Complete a pending withdrawal and debit the account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewWithdrawal(cmd, args[0], deps.ledger.ApproveWithdrawal)
	},
}

var withdrawalRejectCmd = &cobra.Command{
	Use:   "reject ENTRY_ID",
	Short: "Cancel a pending withdrawal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewWithdrawal(cmd, args[0], deps.ledger.RejectWithdrawal)
	},
}

func reviewWithdrawal(
	cmd *cobra.Command,
	rawID string,
	op func(context.Context, uuid.UUID) (balance.Settlement, error),
) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid entry id: %w", err)
	}

	st, err := op(cmd.Context(), id)
	if err != nil {
		return err
	}

	return printJSON(cmd, st)
}
