package entries

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
)

var _ entries.Entries = (*entriesRepo)(nil)

type entriesRepo struct{ db *sql.DB }

func New(db *sql.DB) *entriesRepo {
	return &entriesRepo{db: db}
}

const entryColumns = `id, account_id, kind, amount, status, payment_method, external_ref,
	payout, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (entries.Entry, error) {
	var (
		e             entries.Entry
		paymentMethod sql.NullString
		externalRef   sql.NullString
		payout        []byte
		metadata      []byte
	)

	err := row.Scan(
		&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.Status, &paymentMethod, &externalRef,
		&payout, &metadata, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return entries.Entry{}, err
	}

	e.PaymentMethod = paymentMethod.String
	e.ExternalRef = externalRef.String

	if len(payout) > 0 {
		e.Payout = new(entries.Payout)

		err = json.Unmarshal(payout, e.Payout)
		if err != nil {
			return entries.Entry{}, fmt.Errorf("decode payout: %w", err)
		}
	}

	if len(metadata) > 0 {
		err = json.Unmarshal(metadata, &e.Metadata)
		if err != nil {
			return entries.Entry{}, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return e, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
