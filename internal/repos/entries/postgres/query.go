package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

func (r *entriesRepo) Get(ctx context.Context, id uuid.UUID) (entries.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entries.Entry{}, entries.ErrEntryNotFound
		}

		return entries.Entry{}, fmt.Errorf("get entry: %w", err)
	}

	return e, nil
}

// ListByAccount returns the newest entries first.
func (r *entriesRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]entries.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]entries.Entry, 0, limit)

	for rows.Next() {
		e, serr := scanEntry(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan entry: %w", serr)
		}

		out = append(out, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}

// SumCompleted is the balance the ledger says the account should have. It runs
// on tx so a caller holding the account lock reads on the same connection.
func (r *entriesRepo) SumCompleted(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) (int64, error) {
	var sum int64

	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN kind IN ('DEPOSIT', 'WIN', 'BONUS') THEN amount ELSE -amount END
		), 0)::BIGINT
		FROM ledger_entries
		WHERE account_id = $1
		  AND status = 'COMPLETED'
	`, accountID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum completed entries: %w", err)
	}

	return sum, nil
}
