// Command ledgerctl is the operator CLI for the ledger: account inspection,
// manual adjustments, withdrawal review, credential rotation and on-demand
// inactivity sweeps. It talks to Postgres directly with the same services the
// API uses.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/arcadeledger/internal/config"
	"github.com/fastprodman/arcadeledger/internal/infra/logging"
	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/fastprodman/arcadeledger/internal/services/game"
	"github.com/fastprodman/arcadeledger/internal/services/paycreds"
	"github.com/fastprodman/arcadeledger/pkg/envconf"
	"github.com/spf13/cobra"
)

type ctlConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" envDefault:"WARN"`
	Postgres config.PostgresConfig
	Ledger   config.LedgerConfig
	Game     config.GameConfig
	Reaper   config.ReaperConfig
}

// app is built once per invocation by the root command's PersistentPreRunE.
type app struct {
	cfg    *ctlConfig
	db     *sql.DB
	ledger *balance.Service
	games  *game.Engine
	creds  *paycreds.Service
}

var deps *app

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Operate the arcade ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg := new(ctlConfig)

		err := envconf.Load(cfg)
		if err != nil {
			return fmt.Errorf("init config: %w", err)
		}

		// stdout carries command output
		slog.SetDefault(logging.NewJSON(os.Stderr, cfg.LogLevel))

		db, err := pgutils.OpenDB(cmd.Context(), cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		ledger := balance.New(db, cfg.Ledger)

		deps = &app{
			cfg:    cfg,
			db:     db,
			ledger: ledger,
			games:  game.New(db, ledger, cfg.Game),
			creds:  paycreds.New(db),
		}

		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if deps == nil {
			return nil
		}

		return deps.db.Close()
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
