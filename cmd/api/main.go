package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/arcadeledger/internal/api"
	"github.com/fastprodman/arcadeledger/internal/infra/logging"
	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/fastprodman/arcadeledger/internal/services/game"
	"github.com/fastprodman/arcadeledger/internal/services/paycreds"
	"github.com/fastprodman/arcadeledger/internal/services/reaper"
	"github.com/fastprodman/arcadeledger/pkg/envconf"
	"github.com/fastprodman/arcadeledger/pkg/shutdownqueue"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	// --- Services ---
	ledger := balance.New(db, cfg.Ledger)
	clock := func() time.Time { return time.Now().UTC() }

	games := game.New(db, ledger, cfg.Game).WithClock(clock)
	creds := paycreds.New(db)
	sweeper := reaper.New(games, cfg.Reaper).WithClock(clock)

	srv := api.NewServer(cfg.Port, api.NewHandler(ledger, games, creds))

	shutdownqueue.Add("http server", func(c context.Context) error {
		slog.Info("Shut down server")

		return srv.Shutdown(c)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API started", "port", cfg.Port)

		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	// Stop the server when the signal arrives or the reaper fails, so both
	// goroutines return and Wait unblocks.
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return shutdownqueue.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
