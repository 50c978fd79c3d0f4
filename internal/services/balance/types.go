package balance

import (
	"errors"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/google/uuid"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidKind        = errors.New("invalid entry kind for operation")
	ErrAlreadyFinalized   = errors.New("ledger entry already finalized")
	ErrNoBalance          = errors.New("bonus requires a positive balance")
	ErrBonusNotApplicable = errors.New("balance already at or above bonus target")
	ErrKindMismatch       = errors.New("ledger entry kind mismatch")
	ErrPayoutRequired     = errors.New("withdrawal requires payout details")
	ErrReasonRequired     = errors.New("adjustment requires a reason")
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 50
)

// SettleRequest is an internal settlement: a COMPLETED entry written and
// applied to the balance in one step.
type SettleRequest struct {
	AccountID uuid.UUID
	Kind      entries.Kind
	Amount    int64 // minor units
	Metadata  entries.Metadata
}

// Settlement is the entry a balance operation produced and the balance right after it.
type Settlement struct {
	Entry   entries.Entry `json:"entry"`
	Balance int64         `json:"balance"`
}

// PendingRequest opens a payment-driven entry that waits for the provider's verdict.
type PendingRequest struct {
	AccountID     uuid.UUID
	Kind          entries.Kind // DEPOSIT or WITHDRAWAL
	Amount        int64
	PaymentMethod string
	ExternalRef   string
	Payout        *entries.Payout
	Metadata      entries.Metadata
}

type AdjustRequest struct {
	AccountID uuid.UUID
	Kind      entries.Kind // DEPOSIT or WITHDRAWAL
	Amount    int64
	Reason    string
	AdminID   string
}

// Reconciliation compares the stored balance with the ledger it must equal.
type Reconciliation struct {
	AccountID uuid.UUID `json:"accountId"`
	Balance   int64     `json:"balance"`
	LedgerSum int64     `json:"ledgerSum"`
}

func (r Reconciliation) Consistent() bool {
	return r.Balance == r.LedgerSum
}
