package balance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/arcadeledger/internal/config"
	"github.com/fastprodman/arcadeledger/internal/infra/metrics"
	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	pgaccounts "github.com/fastprodman/arcadeledger/internal/repos/accounts/postgres"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	pgentries "github.com/fastprodman/arcadeledger/internal/repos/entries/postgres"
	"github.com/google/uuid"
)

// Service is the only code path that changes an account balance. Every
// change is a ledger entry reaching COMPLETED in the same transaction as the
// guarded balance update, with the account row locked.
type Service struct {
	db          *sql.DB
	accounts    accounts.Accounts
	entries     entries.Entries
	bonusTarget int64
}

func New(dbx *sql.DB, cfg config.LedgerConfig) *Service {
	return &Service{
		db:          dbx,
		accounts:    pgaccounts.New(dbx),
		entries:     pgentries.New(dbx),
		bonusTarget: cfg.BonusTarget,
	}
}

// OpenAccount registers an account with a zero balance. A nil id gets a fresh one.
func (s *Service) OpenAccount(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}

	acc, err := s.accounts.Create(ctx, id)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("open account: %w", pgutils.Classify(err))
	}

	return acc, nil
}

// Balance reads the account without locking it.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (accounts.Account, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("get balance: %w", pgutils.Classify(err))
	}

	return acc, nil
}

// Settle runs SettleTx in its own transaction.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (Settlement, error) {
	start := time.Now()

	var out Settlement

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error

		out, err = s.SettleTx(ctx, tx, req)

		return err
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("settle: %w", err)
	}

	metrics.SettleDuration.Observe(time.Since(start).Seconds())
	ObserveSettled(out.Entry)

	return out, nil
}

// SettleTx locks the account, checks that a debit is covered, inserts a
// COMPLETED entry and applies its signed amount, all inside tx. Callers that
// settle as part of a larger change (the game engine) pass their own tx and
// must call ObserveSettled after commit.
func (s *Service) SettleTx(ctx context.Context, tx *sql.Tx, req SettleRequest) (Settlement, error) {
	if req.Amount <= 0 {
		metrics.SettleRejected.WithLabelValues("invalid_amount").Inc()
		return Settlement{}, ErrInvalidAmount
	}

	_, err := entries.ParseKind(string(req.Kind))
	if err != nil {
		return Settlement{}, fmt.Errorf("%w: %w", ErrInvalidKind, err)
	}

	acc, err := s.accounts.LockForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return Settlement{}, fmt.Errorf("lock account: %w", err)
	}

	if !req.Kind.IsCredit() && acc.Balance < req.Amount {
		metrics.SettleRejected.WithLabelValues("insufficient_funds").Inc()
		return Settlement{}, fmt.Errorf("%s of %d on balance %d: %w", req.Kind, req.Amount, acc.Balance, accounts.ErrInsufficientFunds)
	}

	e := &entries.Entry{
		AccountID: req.AccountID,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Status:    entries.StatusCompleted,
		Metadata:  req.Metadata,
	}

	err = s.entries.Insert(ctx, tx, e)
	if err != nil {
		return Settlement{}, fmt.Errorf("insert entry: %w", err)
	}

	bal, err := s.accounts.ApplyDelta(ctx, tx, req.AccountID, e.SignedAmount())
	if err != nil {
		return Settlement{}, fmt.Errorf("apply delta: %w", err)
	}

	return Settlement{Entry: *e, Balance: bal}, nil
}

// ObserveSettled records committed entries in the ledger metrics.
func ObserveSettled(es ...entries.Entry) {
	for _, e := range es {
		metrics.EntriesSettled.WithLabelValues(string(e.Kind), string(e.Status)).Inc()
	}
}
