package accounts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/google/uuid"
)

// MarkBonusClaimed flips bonus_claimed once; a second call fails with
// ErrBonusAlreadyClaimed.
func (r *accountsRepo) MarkBonusClaimed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET bonus_claimed = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND NOT bonus_claimed
	`, id)
	if err != nil {
		return fmt.Errorf("mark bonus claimed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrBonusAlreadyClaimed
	}

	return nil
}
