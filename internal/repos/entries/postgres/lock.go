package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

func (r *entriesRepo) LockByID(ctx context.Context, tx *sql.Tx, id uuid.UUID) (entries.Entry, error) {
	e, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entries.Entry{}, entries.ErrEntryNotFound
		}

		return entries.Entry{}, fmt.Errorf("lock entry: %w", err)
	}

	return e, nil
}

func (r *entriesRepo) LockByExternalRef(ctx context.Context, tx *sql.Tx, ref string) (entries.Entry, error) {
	e, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE external_ref = $1
		FOR UPDATE
	`, ref))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entries.Entry{}, entries.ErrEntryNotFound
		}

		return entries.Entry{}, fmt.Errorf("lock entry by external ref: %w", err)
	}

	return e, nil
}
