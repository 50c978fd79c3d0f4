package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrActiveSessionExists = errors.New("account already has an active session")
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

// EndReason records which of the four ending paths closed a session.
type EndReason string

const (
	EndVictory    EndReason = "victory"
	EndCollision  EndReason = "collision"
	EndSuperseded EndReason = "superseded"
	EndTimeout    EndReason = "timeout"
)

type Session struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"accountId"`
	Status         Status          `json:"status"`
	Score          int64           `json:"score"`
	Speed          decimal.Decimal `json:"speed"`
	EarnedAmount   int64           `json:"earnedAmount"`
	EndReason      EndReason       `json:"endReason,omitempty"`
	StartedAt      time.Time       `json:"startTime"`
	LastActivityAt time.Time       `json:"lastActivityTime"`
	EndedAt        *time.Time      `json:"endTime,omitempty"`
}

// StaleSession is the reaper's view of an idle ACTIVE session.
type StaleSession struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	LastActivityAt time.Time
}

type Sessions interface {
	Insert(ctx context.Context, tx *sql.Tx, s Session) error
	Update(ctx context.Context, tx *sql.Tx, s Session) error
	LockActiveByAccount(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) (Session, error)
	LockByID(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Session, error)
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	GetActive(ctx context.Context, accountID uuid.UUID) (Session, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Session, error)
	ListStale(ctx context.Context, idleSince time.Time, limit int) ([]StaleSession, error)
}
