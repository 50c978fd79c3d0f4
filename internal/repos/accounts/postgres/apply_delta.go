package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/google/uuid"
)

// ApplyDelta adds delta (negative for debits) to the balance and returns the
// new balance. The update is guarded so the balance can never go below zero.
func (r *accountsRepo) ApplyDelta(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta int64) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		UPDATE accounts
		SET balance = balance + $2,
		    updated_at = now()
		WHERE id = $1
		  AND balance + $2 >= 0
		RETURNING balance
	`, id, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, r.missingOrInsufficient(ctx, tx, id)
		}

		return 0, fmt.Errorf("apply balance delta: %w", err)
	}

	return balance, nil
}

func (r *accountsRepo) missingOrInsufficient(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var exists bool

	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return accounts.ErrAccountNotFound
	}

	return accounts.ErrInsufficientFunds
}
