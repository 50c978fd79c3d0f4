package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/arcadeledger/internal/config"
	"github.com/fastprodman/arcadeledger/internal/infra/metrics"
	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	pgaccounts "github.com/fastprodman/arcadeledger/internal/repos/accounts/postgres"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	pgsessions "github.com/fastprodman/arcadeledger/internal/repos/sessions/postgres"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// Settler writes COMPLETED ledger entries inside a caller-owned transaction.
type Settler interface {
	SettleTx(ctx context.Context, tx *sql.Tx, req balance.SettleRequest) (balance.Settlement, error)
}

// Outcome is a session after an action, the entries the action settled and
// the account balance once they applied.
type Outcome struct {
	Session    sessions.Session  `json:"session"`
	Superseded *sessions.Session `json:"superseded,omitempty"`
	Entries    []entries.Entry   `json:"entries,omitempty"`
	Balance    int64             `json:"balance"`
}

// Engine runs the session state machine. Every mutating call locks the
// account row first and the session row second, and settles through the
// ledger in the same transaction as the session write.
type Engine struct {
	db       *sql.DB
	accounts accounts.Accounts
	sessions sessions.Sessions
	ledger   Settler
	rules    Rules
	now      func() time.Time
	log      *slog.Logger
}

func New(dbx *sql.DB, ledger Settler, cfg config.GameConfig) *Engine {
	return &Engine{
		db:       dbx,
		accounts: pgaccounts.New(dbx),
		sessions: pgsessions.New(dbx),
		ledger:   ledger,
		rules:    RulesFrom(cfg),
		now:      func() time.Time { return time.Now().UTC() },
		log:      slog.Default(),
	}
}

// WithClock replaces the time source used for activity and end timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	e.log = l
	return e
}

// Start opens a new session. A session still ACTIVE for the account is
// loss-settled first with reason superseded.
func (e *Engine) Start(ctx context.Context, accountID uuid.UUID) (Outcome, error) {
	now := e.now()

	var out Outcome

	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		acc, err := e.accounts.LockForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		out.Balance = acc.Balance

		prev, err := e.sessions.LockActiveByAccount(ctx, tx, accountID)
		switch {
		case err == nil:
			settled, bal, serr := e.settleLoss(ctx, tx, &prev, sessions.EndSuperseded, acc.Balance, now)
			if serr != nil {
				return fmt.Errorf("supersede session %s: %w", prev.ID, serr)
			}

			out.Superseded = &prev
			out.Entries = settled
			out.Balance = bal
		case !errors.Is(err, sessions.ErrSessionNotFound):
			return fmt.Errorf("lock active session: %w", err)
		}

		s := sessions.Session{
			ID:             uuid.New(),
			AccountID:      accountID,
			Status:         sessions.StatusActive,
			Speed:          initialSpeed,
			StartedAt:      now,
			LastActivityAt: now,
		}

		err = e.sessions.Insert(ctx, tx, s)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		out.Session = s

		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("start session: %w", err)
	}

	metrics.SessionsStarted.Inc()

	if out.Superseded != nil {
		e.observeEnd(out.Superseded, out.Entries)
	}

	return out, nil
}

// Advance applies one accrual step. Reaching the victory score ends the
// session and credits the full earnings with no penalty.
func (e *Engine) Advance(ctx context.Context, accountID, sessionID uuid.UUID) (Outcome, error) {
	now := e.now()

	var out Outcome

	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		acc, s, err := e.lockOwned(ctx, tx, accountID, sessionID)
		if err != nil {
			return err
		}

		out.Balance = acc.Balance

		if e.rules.Step(&s, now) {
			s.Status = sessions.StatusEnded
			s.EndReason = sessions.EndVictory
			s.EndedAt = &now

			if s.EarnedAmount > 0 {
				st, serr := e.ledger.SettleTx(ctx, tx, balance.SettleRequest{
					AccountID: accountID,
					Kind:      entries.KindWin,
					Amount:    s.EarnedAmount,
					Metadata:  sessionMetadata(s),
				})
				if serr != nil {
					return fmt.Errorf("settle victory: %w", serr)
				}

				out.Entries = append(out.Entries, st.Entry)
				out.Balance = st.Balance
			}
		}

		err = e.sessions.Update(ctx, tx, s)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		out.Session = s

		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("advance session: %w", err)
	}

	if out.Session.Status == sessions.StatusEnded {
		e.observeEnd(&out.Session, out.Entries)
	}

	return out, nil
}

// End finishes the session on a collision and loss-settles its earnings.
func (e *Engine) End(ctx context.Context, accountID, sessionID uuid.UUID) (Outcome, error) {
	now := e.now()

	var out Outcome

	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		acc, s, err := e.lockOwned(ctx, tx, accountID, sessionID)
		if err != nil {
			return err
		}

		settled, bal, err := e.settleLoss(ctx, tx, &s, sessions.EndCollision, acc.Balance, now)
		if err != nil {
			return err
		}

		out = Outcome{Session: s, Entries: settled, Balance: bal}

		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("end session: %w", err)
	}

	e.observeEnd(&out.Session, out.Entries)

	return out, nil
}

// Expire loss-settles a session that has been idle since before idleSince.
// The state is re-read under the account and session locks; a session that
// ended or saw activity in the meantime is left alone and expired is false.
func (e *Engine) Expire(ctx context.Context, sessionID uuid.UUID, idleSince time.Time) (out Outcome, expired bool, err error) {
	peek, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("expire session: %w", pgutils.Classify(err))
	}

	now := e.now()

	err = pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		acc, lerr := e.accounts.LockForUpdate(ctx, tx, peek.AccountID)
		if lerr != nil {
			return fmt.Errorf("lock account: %w", lerr)
		}

		s, lerr := e.sessions.LockByID(ctx, tx, sessionID)
		if lerr != nil {
			return fmt.Errorf("lock session: %w", lerr)
		}

		if s.Status != sessions.StatusActive || !s.LastActivityAt.Before(idleSince) {
			out = Outcome{Session: s, Balance: acc.Balance}
			return nil
		}

		settled, bal, serr := e.settleLoss(ctx, tx, &s, sessions.EndTimeout, acc.Balance, now)
		if serr != nil {
			return serr
		}

		out = Outcome{Session: s, Entries: settled, Balance: bal}
		expired = true

		return nil
	})
	if err != nil {
		return Outcome{}, false, fmt.Errorf("expire session %s: %w", sessionID, err)
	}

	if expired {
		e.observeEnd(&out.Session, out.Entries)
	}

	return out, expired, nil
}

func (e *Engine) Active(ctx context.Context, accountID uuid.UUID) (sessions.Session, error) {
	s, err := e.sessions.GetActive(ctx, accountID)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("active session: %w", pgutils.Classify(err))
	}

	return s, nil
}

// History lists the account's sessions, newest first.
func (e *Engine) History(ctx context.Context, accountID uuid.UUID, limit int) ([]sessions.Session, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	list, err := e.sessions.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", pgutils.Classify(err))
	}

	return list, nil
}

// StaleSessions lists ACTIVE sessions idle since before idleSince.
func (e *Engine) StaleSessions(ctx context.Context, idleSince time.Time, limit int) ([]sessions.StaleSession, error) {
	list, err := e.sessions.ListStale(ctx, idleSince, limit)
	if err != nil {
		return nil, fmt.Errorf("stale sessions: %w", pgutils.Classify(err))
	}

	return list, nil
}

// lockOwned locks the caller's account and then the session. A session that
// is missing, owned by someone else or already ended is ErrSessionNotFound.
func (e *Engine) lockOwned(ctx context.Context, tx *sql.Tx, accountID, sessionID uuid.UUID) (accounts.Account, sessions.Session, error) {
	acc, err := e.accounts.LockForUpdate(ctx, tx, accountID)
	if err != nil {
		return accounts.Account{}, sessions.Session{}, fmt.Errorf("lock account: %w", err)
	}

	s, err := e.sessions.LockByID(ctx, tx, sessionID)
	if err != nil {
		return accounts.Account{}, sessions.Session{}, fmt.Errorf("lock session: %w", err)
	}

	if s.AccountID != accountID || s.Status != sessions.StatusActive {
		return accounts.Account{}, sessions.Session{}, fmt.Errorf("session %s: %w", sessionID, sessions.ErrSessionNotFound)
	}

	return acc, s, nil
}

// settleLoss ends s and pays out earned minus the penalty. The WIN credit
// lands before the BET so the penalty is charged against it; a penalty the
// balance still cannot cover is charged up to the balance and the rest is
// recorded as waived.
func (e *Engine) settleLoss(
	ctx context.Context,
	tx *sql.Tx,
	s *sessions.Session,
	reason sessions.EndReason,
	bal int64,
	now time.Time,
) ([]entries.Entry, int64, error) {
	s.Status = sessions.StatusEnded
	s.EndReason = reason
	s.EndedAt = &now

	penalty, credit := e.rules.LossSplit(s.EarnedAmount)

	var settled []entries.Entry

	if credit > 0 {
		st, err := e.ledger.SettleTx(ctx, tx, balance.SettleRequest{
			AccountID: s.AccountID,
			Kind:      entries.KindWin,
			Amount:    credit,
			Metadata:  sessionMetadata(*s),
		})
		if err != nil {
			return nil, 0, fmt.Errorf("settle win: %w", err)
		}

		settled = append(settled, st.Entry)
		bal = st.Balance
	}

	if charge := min(penalty, bal); charge > 0 {
		md := sessionMetadata(*s)
		md["penaltyAssessed"] = penalty
		md["penaltyWaived"] = penalty - charge

		st, err := e.ledger.SettleTx(ctx, tx, balance.SettleRequest{
			AccountID: s.AccountID,
			Kind:      entries.KindBet,
			Amount:    charge,
			Metadata:  md,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("settle penalty: %w", err)
		}

		settled = append(settled, st.Entry)
		bal = st.Balance
	}

	err := e.sessions.Update(ctx, tx, *s)
	if err != nil {
		return nil, 0, fmt.Errorf("update session: %w", err)
	}

	return settled, bal, nil
}

func (e *Engine) observeEnd(s *sessions.Session, settled []entries.Entry) {
	metrics.SessionsEnded.WithLabelValues(string(s.EndReason)).Inc()
	balance.ObserveSettled(settled...)

	e.log.Info("game session ended",
		"session_id", s.ID,
		"account_id", s.AccountID,
		"reason", s.EndReason,
		"score", s.Score,
		"earned", s.EarnedAmount,
		"entries", len(settled),
	)

	if s.EndReason == sessions.EndVictory {
		return
	}

	// A penalty the balance could not cover leaves no BET for its uncovered
	// part, so the shortfall is logged here.
	penalty, _ := e.rules.LossSplit(s.EarnedAmount)

	var charged int64

	for _, en := range settled {
		if en.Kind == entries.KindBet {
			charged += en.Amount
		}
	}

	if waived := penalty - charged; waived > 0 {
		e.log.Info("game penalty waived",
			"session_id", s.ID,
			"account_id", s.AccountID,
			"penalty_assessed", penalty,
			"penalty_waived", waived,
		)
	}
}

func sessionMetadata(s sessions.Session) entries.Metadata {
	return entries.Metadata{
		"sessionId": s.ID.String(),
		"score":     s.Score,
		"earned":    s.EarnedAmount,
		"endReason": string(s.EndReason),
	}
}
