package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrBonusAlreadyClaimed = errors.New("bonus already claimed")
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Balance      int64     `json:"balance"`
	BonusClaimed bool      `json:"bonusClaimed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Accounts is the account store. Balance changes only through ApplyDelta,
// which callers run in the same transaction as the ledger entry write.
type Accounts interface {
	Create(ctx context.Context, id uuid.UUID) (Account, error)
	Get(ctx context.Context, id uuid.UUID) (Account, error)
	LockForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Account, error)
	ApplyDelta(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta int64) (int64, error)
	MarkBonusClaimed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}
