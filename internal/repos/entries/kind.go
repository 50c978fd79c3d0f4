package entries

import "fmt"

type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindBet        Kind = "BET"
	KindWin        Kind = "WIN"
	KindBonus      Kind = "BONUS"
)

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindDeposit, KindWithdrawal, KindBet, KindWin, KindBonus:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
}

// IsCredit reports whether the kind adds to the balance.
func (k Kind) IsCredit() bool {
	return k == KindDeposit || k == KindWin || k == KindBonus
}

// Signed returns amount with the sign the kind applies to the balance.
func (k Kind) Signed(amount int64) int64 {
	if k.IsCredit() {
		return amount
	}

	return -amount
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// PayoutKeyType is the kind of PIX key a withdrawal is paid out to.
type PayoutKeyType string

const (
	PayoutCPF    PayoutKeyType = "CPF"
	PayoutEmail  PayoutKeyType = "EMAIL"
	PayoutPhone  PayoutKeyType = "PHONE"
	PayoutRandom PayoutKeyType = "RANDOM"
)

// Payout is the destination of a withdrawal. Required on every WITHDRAWAL
// request, absent on every other kind.
type Payout struct {
	KeyType PayoutKeyType `json:"keyType"`
	Key     string        `json:"key"`
}

func (p Payout) Validate() error {
	switch p.KeyType {
	case PayoutCPF, PayoutEmail, PayoutPhone, PayoutRandom:
	default:
		return fmt.Errorf("invalid payout key type %q", p.KeyType)
	}

	if p.Key == "" {
		return fmt.Errorf("payout key is empty")
	}

	return nil
}
