package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

// RequestPending records a deposit or withdrawal the payment provider has yet
// to confirm. The balance is not touched until Complete.
func (s *Service) RequestPending(ctx context.Context, req PendingRequest) (entries.Entry, error) {
	if req.Amount <= 0 {
		return entries.Entry{}, ErrInvalidAmount
	}

	switch req.Kind {
	case entries.KindWithdrawal:
		if req.Payout == nil {
			return entries.Entry{}, ErrPayoutRequired
		}

		err := req.Payout.Validate()
		if err != nil {
			return entries.Entry{}, fmt.Errorf("%w: %w", ErrPayoutRequired, err)
		}
	case entries.KindDeposit:
		if req.Payout != nil {
			return entries.Entry{}, fmt.Errorf("payout on %s: %w", req.Kind, ErrInvalidKind)
		}
	default:
		return entries.Entry{}, fmt.Errorf("pending %s: %w", req.Kind, ErrInvalidKind)
	}

	e := &entries.Entry{
		AccountID:     req.AccountID,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Status:        entries.StatusPending,
		PaymentMethod: req.PaymentMethod,
		ExternalRef:   req.ExternalRef,
		Payout:        req.Payout,
		Metadata:      req.Metadata,
	}

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		acc, err := s.accounts.LockForUpdate(ctx, tx, req.AccountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		// Early rejection only; Complete checks again against the balance at that time.
		if req.Kind == entries.KindWithdrawal && acc.Balance < req.Amount {
			return fmt.Errorf("withdrawal of %d on balance %d: %w", req.Amount, acc.Balance, accounts.ErrInsufficientFunds)
		}

		err = s.entries.Insert(ctx, tx, e)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return entries.Entry{}, fmt.Errorf("request pending: %w", err)
	}

	return *e, nil
}

type entryLocker func(tx *sql.Tx) (entries.Entry, error)

func (s *Service) byID(ctx context.Context, id uuid.UUID) entryLocker {
	return func(tx *sql.Tx) (entries.Entry, error) {
		return s.entries.LockByID(ctx, tx, id)
	}
}

func (s *Service) byExternalRef(ctx context.Context, ref string) entryLocker {
	return func(tx *sql.Tx) (entries.Entry, error) {
		return s.entries.LockByExternalRef(ctx, tx, ref)
	}
}

// Complete moves a PENDING entry to COMPLETED and applies its amount. A
// withdrawal the balance can no longer cover fails with
// accounts.ErrInsufficientFunds and stays PENDING.
func (s *Service) Complete(ctx context.Context, entryID uuid.UUID, externalRef string) (Settlement, error) {
	return s.finalize(ctx, s.byID(ctx, entryID), entries.StatusCompleted, externalRef, "")
}

func (s *Service) Cancel(ctx context.Context, entryID uuid.UUID) (Settlement, error) {
	return s.finalize(ctx, s.byID(ctx, entryID), entries.StatusCancelled, "", "")
}

func (s *Service) Fail(ctx context.Context, entryID uuid.UUID) (Settlement, error) {
	return s.finalize(ctx, s.byID(ctx, entryID), entries.StatusFailed, "", "")
}

func (s *Service) CompleteByExternalRef(ctx context.Context, ref string) (Settlement, error) {
	return s.finalize(ctx, s.byExternalRef(ctx, ref), entries.StatusCompleted, "", "")
}

func (s *Service) CancelByExternalRef(ctx context.Context, ref string) (Settlement, error) {
	return s.finalize(ctx, s.byExternalRef(ctx, ref), entries.StatusCancelled, "", "")
}

func (s *Service) FailByExternalRef(ctx context.Context, ref string) (Settlement, error) {
	return s.finalize(ctx, s.byExternalRef(ctx, ref), entries.StatusFailed, "", "")
}

// ApproveWithdrawal completes a pending withdrawal on an admin's decision.
func (s *Service) ApproveWithdrawal(ctx context.Context, entryID uuid.UUID) (Settlement, error) {
	return s.finalize(ctx, s.byID(ctx, entryID), entries.StatusCompleted, "", entries.KindWithdrawal)
}

func (s *Service) RejectWithdrawal(ctx context.Context, entryID uuid.UUID) (Settlement, error) {
	return s.finalize(ctx, s.byID(ctx, entryID), entries.StatusCancelled, "", entries.KindWithdrawal)
}

// finalize locks the entry, then its account, and applies the one-way status
// change. Only COMPLETED moves the balance.
func (s *Service) finalize(
	ctx context.Context,
	lock entryLocker,
	status entries.Status,
	externalRef string,
	wantKind entries.Kind,
) (Settlement, error) {
	var out Settlement

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		e, err := lock(tx)
		if err != nil {
			return fmt.Errorf("lock entry: %w", err)
		}

		if wantKind != "" && e.Kind != wantKind {
			return fmt.Errorf("entry is %s, want %s: %w", e.Kind, wantKind, ErrKindMismatch)
		}

		if e.Status.Terminal() {
			return fmt.Errorf("entry %s is %s: %w", e.ID, e.Status, ErrAlreadyFinalized)
		}

		acc, err := s.accounts.LockForUpdate(ctx, tx, e.AccountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if status == entries.StatusCompleted && acc.Balance+e.SignedAmount() < 0 {
			return fmt.Errorf("complete %s of %d on balance %d: %w", e.Kind, e.Amount, acc.Balance, accounts.ErrInsufficientFunds)
		}

		fin, err := s.entries.Finalize(ctx, tx, e.ID, status, externalRef)
		if err != nil {
			if errors.Is(err, entries.ErrNotPending) {
				return fmt.Errorf("entry %s: %w", e.ID, ErrAlreadyFinalized)
			}

			return fmt.Errorf("finalize entry: %w", err)
		}

		bal := acc.Balance
		if status == entries.StatusCompleted {
			bal, err = s.accounts.ApplyDelta(ctx, tx, e.AccountID, fin.SignedAmount())
			if err != nil {
				return fmt.Errorf("apply delta: %w", err)
			}
		}

		out = Settlement{Entry: fin, Balance: bal}

		return nil
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("finalize %s: %w", status, err)
	}

	ObserveSettled(out.Entry)

	return out, nil
}
