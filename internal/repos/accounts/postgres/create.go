package accounts

import (
	"context"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/google/uuid"
)

func (r *accountsRepo) Create(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id)
		VALUES ($1)
		RETURNING `+accountColumns, id))
	if err != nil {
		if pgutils.IsUniqueViolation(err, "accounts_pkey") {
			return accounts.Account{}, accounts.ErrAccountExists
		}

		return accounts.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return a, nil
}
