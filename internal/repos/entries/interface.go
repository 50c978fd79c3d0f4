package entries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound        = errors.New("ledger entry not found")
	ErrNotPending           = errors.New("ledger entry is not pending")
	ErrDuplicateExternalRef = errors.New("duplicate external reference")
)

// Entries is the ledger store. Entries are never deleted; the only mutation
// after insert is the one-way PENDING -> terminal status change.
type Entries interface {
	Insert(ctx context.Context, tx *sql.Tx, e *Entry) error
	LockByID(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Entry, error)
	LockByExternalRef(ctx context.Context, tx *sql.Tx, ref string) (Entry, error)
	Finalize(ctx context.Context, tx *sql.Tx, id uuid.UUID, status Status, externalRef string) (Entry, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Entry, error)
	SumCompleted(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) (int64, error)
}

type Entry struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"accountId"`
	Kind          Kind      `json:"kind"`
	Amount        int64     `json:"amount"`
	Status        Status    `json:"status"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	ExternalRef   string    `json:"externalRef,omitempty"`
	Payout        *Payout   `json:"payout,omitempty"`
	Metadata      Metadata  `json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SignedAmount is the entry's effect on the balance once COMPLETED.
func (e Entry) SignedAmount() int64 {
	return e.Kind.Signed(e.Amount)
}

// Metadata is informational context attached to an entry (score, previous
// balance, admin reason). Nothing reads it to enforce an invariant.
type Metadata map[string]any
