// Command migrator applies the embedded schema migrations and, in DEV, the
// seed data. Without a subcommand it runs "up".
package main

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/arcadeledger/internal/infra/logging"
	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/pkg/envconf"
	"github.com/spf13/cobra"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var baseFS embed.FS

//go:embed test_data/*.sql
var devFS embed.FS

// set is one embedded migration directory and the version table it tracks.
type set struct {
	name  string
	fsys  embed.FS
	dir   string
	table string
}

var (
	schemaSet = set{name: "schema", fsys: baseFS, dir: "migrations", table: "schema_migrations"}
	// Seed data keeps its own version table so its numbering never collides
	// with the schema migrations.
	seedSet = set{name: "dev seed", fsys: devFS, dir: "test_data", table: "schema_migrations_dev_seed"}
)

type migratorConfig struct {
	DSN      string     `env:"PG_DSN"`
	LogLevel slog.Level `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	AppEnv   string     `env:"APP_ENV" envDefault:"PROD"`
}

var (
	cfg *migratorConfig
	db  *sql.DB
)

var rootCmd = &cobra.Command{
	Use:           "migrator",
	Short:         "Apply ledger database migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg = new(migratorConfig)

		err := envconf.Load(cfg)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logging.SetupJSON(cfg.LogLevel)

		db, err = sql.Open(pgutils.DriverName, cfg.DSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		err = db.PingContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("ping db: %w", pgutils.Classify(err))
		}

		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if db == nil {
			return nil
		}

		return db.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return upCmd.RunE(cmd, args)
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations (plus seed data when APP_ENV=DEV or --seed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed, _ := cmd.Flags().GetBool("seed")

		err := up(schemaSet)
		if err != nil {
			return err
		}

		if cfg.AppEnv == "DEV" || seed {
			return up(seedSet)
		}

		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps <= 0 {
			return fmt.Errorf("--steps must be positive, got %d", steps)
		}

		m, err := newMigrate(schemaSet)
		if err != nil {
			return err
		}

		err = m.Steps(-steps)
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("%s down %d: %w", schemaSet.name, steps, err)
		}

		slog.Info("migrations rolled back", "set", schemaSet.name, "steps", steps)

		return nil
	},
}

type versionView struct {
	Set     string `json:"set"`
	Version uint   `json:"version"`
	Dirty   bool   `json:"dirty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied version of each migration set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var out []versionView

		for _, s := range []set{schemaSet, seedSet} {
			m, err := newMigrate(s)
			if err != nil {
				return err
			}

			v, dirty, err := m.Version()
			if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
				return fmt.Errorf("%s version: %w", s.name, err)
			}

			out = append(out, versionView{Set: s.name, Version: v, Dirty: dirty})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)

	rootCmd.Flags().Bool("seed", false, "Also apply dev seed data")
	upCmd.Flags().Bool("seed", false, "Also apply dev seed data")
	downCmd.Flags().Int("steps", 1, "Number of schema migrations to roll back")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("migration run failed", "error", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func up(s set) error {
	m, err := newMigrate(s)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s up: %w", s.name, err)
	}

	slog.Info("migrations applied", "set", s.name)

	return nil
}

func newMigrate(s set) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: s.table})
	if err != nil {
		return nil, fmt.Errorf("init postgres driver: %w", err)
	}

	src, err := iofs.New(s.fsys, s.dir)
	if err != nil {
		return nil, fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}

	return m, nil
}
