// Package reaper ends game sessions that stopped receiving actions.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/arcadeledger/internal/config"
	"github.com/fastprodman/arcadeledger/internal/infra/metrics"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/fastprodman/arcadeledger/internal/services/game"
	"github.com/google/uuid"
)

// Finisher finds idle sessions and loss-settles them. Expire must re-check
// the session under lock and report expired=false when it no longer qualifies.
type Finisher interface {
	StaleSessions(ctx context.Context, idleSince time.Time, limit int) ([]sessions.StaleSession, error)
	Expire(ctx context.Context, sessionID uuid.UUID, idleSince time.Time) (game.Outcome, bool, error)
}

type Reaper struct {
	finisher Finisher
	cfg      config.ReaperConfig
	now      func() time.Time
	log      *slog.Logger
}

func New(f Finisher, cfg config.ReaperConfig) *Reaper {
	return &Reaper{
		finisher: f,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      slog.Default().With("component", "reaper"),
	}
}

// WithClock replaces the time source used to compute the idle cutoff.
func (r *Reaper) WithClock(now func() time.Time) *Reaper {
	r.now = now
	return r
}

func (r *Reaper) WithLogger(l *slog.Logger) *Reaper {
	r.log = l
	return r
}

// Run sweeps every cfg.Interval until ctx is done. Sweep failures are logged
// and left to the next tick.
func (r *Reaper) Run(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %s", r.cfg.Interval)
	}

	r.log.Info("reaper started", "interval", r.cfg.Interval, "idle_timeout", r.cfg.IdleTimeout)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return nil
		case <-ticker.C:
			_, err := r.safeSweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error("inactivity sweep failed", "error", err)
			}
		}
	}
}

func (r *Reaper) safeSweep(ctx context.Context) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in sweep: %v", p)
		}
	}()

	return r.Sweep(ctx)
}

// Sweep expires every session idle for longer than cfg.IdleTimeout, up to
// cfg.BatchSize per call, and returns how many it ended. Each session gets its
// own cfg.SettleTimeout; one failure does not stop the rest.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	metrics.ReaperSweeps.Inc()

	idleSince := r.now().Add(-r.cfg.IdleTimeout)

	stale, err := r.finisher.StaleSessions(ctx, idleSince, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}

	var reaped, failed int

	for _, s := range stale {
		err = ctx.Err()
		if err != nil {
			return reaped, err
		}

		ok, eerr := r.expire(ctx, s, idleSince)
		if eerr != nil {
			failed++
			metrics.ReaperFailures.Inc()
			r.log.Error("expire session",
				"session_id", s.ID,
				"account_id", s.AccountID,
				"error", eerr,
			)

			continue
		}

		if ok {
			reaped++
		}
	}

	metrics.ReaperExpired.Add(float64(reaped))

	if len(stale) > 0 {
		r.log.Info("inactivity sweep done", "stale", len(stale), "expired", reaped, "failed", failed)
	}

	return reaped, nil
}

func (r *Reaper) expire(ctx context.Context, s sessions.StaleSession, idleSince time.Time) (bool, error) {
	if r.cfg.SettleTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.cfg.SettleTimeout)
		defer cancel()
	}

	_, expired, err := r.finisher.Expire(ctx, s.ID, idleSince)

	return expired, err
}
