package balance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

// ClaimBonus tops the balance up to the bonus target once per account. A
// rejected claim leaves the flag untouched so it can be claimed later.
func (s *Service) ClaimBonus(ctx context.Context, accountID uuid.UUID) (Settlement, error) {
	var out Settlement

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		acc, err := s.accounts.LockForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		switch {
		case acc.BonusClaimed:
			return accounts.ErrBonusAlreadyClaimed
		case acc.Balance <= 0:
			return ErrNoBalance
		case acc.Balance >= s.bonusTarget:
			return fmt.Errorf("balance %d, target %d: %w", acc.Balance, s.bonusTarget, ErrBonusNotApplicable)
		}

		out, err = s.SettleTx(ctx, tx, SettleRequest{
			AccountID: accountID,
			Kind:      entries.KindBonus,
			Amount:    s.bonusTarget - acc.Balance,
			Metadata: entries.Metadata{
				"previousBalance": acc.Balance,
				"newBalance":      s.bonusTarget,
			},
		})
		if err != nil {
			return err
		}

		err = s.accounts.MarkBonusClaimed(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("mark bonus claimed: %w", err)
		}

		return nil
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("claim bonus: %w", err)
	}

	ObserveSettled(out.Entry)

	return out, nil
}
