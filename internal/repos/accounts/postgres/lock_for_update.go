package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/google/uuid"
)

// LockForUpdate reads the account and holds its row lock until tx ends.
// Every balance read-modify-write goes through this lock, so concurrent
// settlements for one account run one after another and the waiter sees the
// committed balance.
func (r *accountsRepo) LockForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (accounts.Account, error) {
	a, err := scanAccount(tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("lock account: %w", err)
	}

	return a, nil
}
