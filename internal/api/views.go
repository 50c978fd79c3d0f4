package api

import (
	"time"

	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/fastprodman/arcadeledger/internal/services/game"
	"github.com/google/uuid"
)

// Money crosses the wire as two-decimal strings; everything below the API
// works in int64 minor units.

type accountView struct {
	AccountID    uuid.UUID `json:"accountId"`
	Balance      string    `json:"balance"`
	BonusClaimed bool      `json:"bonusClaimed"`
}

func newAccountView(a accounts.Account) accountView {
	return accountView{AccountID: a.ID, Balance: formatCents(a.Balance), BonusClaimed: a.BonusClaimed}
}

type entryView struct {
	ID            uuid.UUID        `json:"id"`
	AccountID     uuid.UUID        `json:"accountId"`
	Kind          entries.Kind     `json:"kind"`
	Amount        string           `json:"amount"`
	Status        entries.Status   `json:"status"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	ExternalRef   string           `json:"externalRef,omitempty"`
	Payout        *entries.Payout  `json:"payout,omitempty"`
	Metadata      entries.Metadata `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func newEntryView(e entries.Entry) entryView {
	return entryView{
		ID:            e.ID,
		AccountID:     e.AccountID,
		Kind:          e.Kind,
		Amount:        formatCents(e.Amount),
		Status:        e.Status,
		PaymentMethod: e.PaymentMethod,
		ExternalRef:   e.ExternalRef,
		Payout:        e.Payout,
		Metadata:      e.Metadata,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func newEntryViews(es []entries.Entry) []entryView {
	out := make([]entryView, 0, len(es))
	for _, e := range es {
		out = append(out, newEntryView(e))
	}

	return out
}

type settlementView struct {
	Entry   entryView `json:"entry"`
	Balance string    `json:"balance"`
}

func newSettlementView(s balance.Settlement) settlementView {
	return settlementView{Entry: newEntryView(s.Entry), Balance: formatCents(s.Balance)}
}

type sessionView struct {
	ID               uuid.UUID          `json:"id"`
	Status           sessions.Status    `json:"status"`
	Score            int64              `json:"score"`
	Speed            string             `json:"speed"`
	EarnedAmount     string             `json:"earnedAmount"`
	EndReason        sessions.EndReason `json:"endReason,omitempty"`
	StartTime        time.Time          `json:"startTime"`
	LastActivityTime time.Time          `json:"lastActivityTime"`
	EndTime          *time.Time         `json:"endTime,omitempty"`
}

func newSessionView(s sessions.Session) sessionView {
	return sessionView{
		ID:               s.ID,
		Status:           s.Status,
		Score:            s.Score,
		Speed:            s.Speed.String(),
		EarnedAmount:     formatCents(s.EarnedAmount),
		EndReason:        s.EndReason,
		StartTime:        s.StartedAt,
		LastActivityTime: s.LastActivityAt,
		EndTime:          s.EndedAt,
	}
}

type outcomeView struct {
	Session    sessionView  `json:"session"`
	Superseded *sessionView `json:"superseded,omitempty"`
	Entries    []entryView  `json:"entries"`
	Balance    string       `json:"balance"`
}

func newOutcomeView(o game.Outcome) outcomeView {
	v := outcomeView{
		Session: newSessionView(o.Session),
		Entries: newEntryViews(o.Entries),
		Balance: formatCents(o.Balance),
	}

	if o.Superseded != nil {
		sv := newSessionView(*o.Superseded)
		v.Superseded = &sv
	}

	return v
}

type reconciliationView struct {
	AccountID  uuid.UUID `json:"accountId"`
	Balance    string    `json:"balance"`
	LedgerSum  string    `json:"ledgerSum"`
	Consistent bool      `json:"consistent"`
}

func newReconciliationView(r balance.Reconciliation) reconciliationView {
	return reconciliationView{
		AccountID:  r.AccountID,
		Balance:    formatCents(r.Balance),
		LedgerSum:  formatCents(r.LedgerSum),
		Consistent: r.Consistent(),
	}
}
