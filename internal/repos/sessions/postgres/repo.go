package sessions

import (
	"database/sql"
	"time"

	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
)

var _ sessions.Sessions = (*sessionsRepo)(nil)

type sessionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *sessionsRepo {
	return &sessionsRepo{db: db}
}

const sessionColumns = `id, account_id, status, score, speed, earned_amount, end_reason,
	started_at, last_activity_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (sessions.Session, error) {
	var (
		s         sessions.Session
		endReason sql.NullString
		endedAt   sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.AccountID, &s.Status, &s.Score, &s.Speed, &s.EarnedAmount, &endReason,
		&s.StartedAt, &s.LastActivityAt, &endedAt,
	)
	if err != nil {
		return sessions.Session{}, err
	}

	s.EndReason = sessions.EndReason(endReason.String)

	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}

	return s, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}
