package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

// Finalize moves a PENDING entry to status. An empty externalRef keeps the
// stored one. Entries that already left PENDING yield ErrNotPending.
func (r *entriesRepo) Finalize(
	ctx context.Context,
	tx *sql.Tx,
	id uuid.UUID,
	status entries.Status,
	externalRef string,
) (entries.Entry, error) {
	if !status.Terminal() {
		return entries.Entry{}, fmt.Errorf("finalize to non-terminal status %q", status)
	}

	e, err := scanEntry(tx.QueryRowContext(ctx, `
		UPDATE ledger_entries
		SET status = $2,
		    external_ref = COALESCE($3, external_ref),
		    updated_at = clock_timestamp()
		WHERE id = $1
		  AND status = 'PENDING'
		RETURNING `+entryColumns,
		id, string(status), nullIfEmpty(externalRef)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entries.Entry{}, entries.ErrNotPending
		}

		if pgutils.IsUniqueViolation(err, "ledger_entries_external_ref_key") {
			return entries.Entry{}, entries.ErrDuplicateExternalRef
		}

		return entries.Entry{}, fmt.Errorf("finalize entry: %w", err)
	}

	return e, nil
}
