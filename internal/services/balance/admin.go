package balance

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

// Adjust settles a manual DEPOSIT or WITHDRAWAL on behalf of an admin. The
// reason and admin id are kept on the entry.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (Settlement, error) {
	if req.Kind != entries.KindDeposit && req.Kind != entries.KindWithdrawal {
		return Settlement{}, fmt.Errorf("adjust with %s: %w", req.Kind, ErrInvalidKind)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return Settlement{}, ErrReasonRequired
	}

	out, err := s.Settle(ctx, SettleRequest{
		AccountID: req.AccountID,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Metadata: entries.Metadata{
			"reason":  reason,
			"adminId": req.AdminID,
		},
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("adjust: %w", err)
	}

	return out, nil
}

// Reconcile reads the stored balance and the sum of COMPLETED entries while
// holding the account lock, so no settlement can land between the two reads.
func (s *Service) Reconcile(ctx context.Context, accountID uuid.UUID) (Reconciliation, error) {
	out := Reconciliation{AccountID: accountID}

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		acc, err := s.accounts.LockForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		sum, err := s.entries.SumCompleted(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("sum ledger: %w", err)
		}

		out.Balance = acc.Balance
		out.LedgerSum = sum

		return nil
	})
	if err != nil {
		return Reconciliation{}, fmt.Errorf("reconcile: %w", err)
	}

	return out, nil
}
