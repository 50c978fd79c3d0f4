package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountOpenCmd)
	accountCmd.AddCommand(accountBalanceCmd)
	accountCmd.AddCommand(accountReconcileCmd)
	accountCmd.AddCommand(accountHistoryCmd)

	accountOpenCmd.Flags().String("id", "", "Account id to register (random when empty)")
	accountHistoryCmd.Flags().Int("limit", 20, "Number of entries to show")
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect and register accounts",
}

var accountOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Register an account with a zero balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, _ := cmd.Flags().GetString("id")

		id := uuid.Nil
		if raw != "" {
			var err error

			id, err = uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}
		}

		acc, err := deps.ledger.OpenAccount(cmd.Context(), id)
		if err != nil {
			return err
		}

		return printJSON(cmd, acc)
	},
}

var accountBalanceCmd = &cobra.Command{
	Use:   "balance ACCOUNT_ID",
	Short: "Show an account's balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account id: %w", err)
		}

		acc, err := deps.ledger.Balance(cmd.Context(), id)
		if err != nil {
			return err
		}

		return printJSON(cmd, acc)
	},
}

var accountReconcileCmd = &cobra.Command{
	Use:   "reconcile ACCOUNT_ID",
	Short: "Compare the stored balance with the sum of completed entries",
	Long: `Compare the stored balance with the sum of completed ledger entries.
Exits non-zero when they differ.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account id: %w", err)
		}

		rec, err := deps.ledger.Reconcile(cmd.Context(), id)
		if err != nil {
			return err
		}

		err = printJSON(cmd, rec)
		if err != nil {
			return err
		}

		if !rec.Consistent() {
			return fmt.Errorf("account %s: balance %d != ledger sum %d", id, rec.Balance, rec.LedgerSum)
		}

		return nil
	},
}

var accountHistoryCmd = &cobra.Command{
	Use:   "history ACCOUNT_ID",
	Short: "List an account's latest ledger entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account id: %w", err)
		}

		limit, _ := cmd.Flags().GetInt("limit")

		list, err := deps.ledger.History(cmd.Context(), id, limit)
		if err != nil {
			return err
		}

		return printJSON(cmd, list)
	},
}
