package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

// Insert stores e and fills in its ID (when zero) and timestamps.
func (r *entriesRepo) Insert(ctx context.Context, tx *sql.Tx, e *entries.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	if e.Metadata == nil {
		e.Metadata = entries.Metadata{}
	}

	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	var payout any
	if e.Payout != nil {
		raw, merr := json.Marshal(e.Payout)
		if merr != nil {
			return fmt.Errorf("encode payout: %w", merr)
		}

		payout = string(raw)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO ledger_entries
			(id, account_id, kind, amount, status, payment_method, external_ref, payout, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, e.ID, e.AccountID, string(e.Kind), e.Amount, string(e.Status),
		nullIfEmpty(e.PaymentMethod), nullIfEmpty(e.ExternalRef), payout, string(metadata),
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "ledger_entries_external_ref_key") {
			return entries.ErrDuplicateExternalRef
		}

		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}
