package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/google/uuid"
)

func (r *sessionsRepo) Get(ctx context.Context, id uuid.UUID) (sessions.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("get session: %w", err)
	}

	return s, nil
}

func (r *sessionsRepo) GetActive(ctx context.Context, accountID uuid.UUID) (sessions.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE account_id = $1
		  AND status = 'ACTIVE'
	`, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("get active session: %w", err)
	}

	return s, nil
}

func (r *sessionsRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]sessions.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE account_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []sessions.Session

	for rows.Next() {
		s, serr := scanSession(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan session: %w", serr)
		}

		out = append(out, s)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return out, nil
}

// ListStale returns ACTIVE sessions idle since before idleSince, oldest first.
// Rows are not locked; the caller re-checks each one under lock.
func (r *sessionsRepo) ListStale(ctx context.Context, idleSince time.Time, limit int) ([]sessions.StaleSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, last_activity_at
		FROM game_sessions
		WHERE status = 'ACTIVE'
		  AND last_activity_at < $1
		ORDER BY last_activity_at
		LIMIT $2
	`, idleSince, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale sessions: %w", err)
	}
	defer rows.Close()

	var out []sessions.StaleSession

	for rows.Next() {
		var s sessions.StaleSession

		err = rows.Scan(&s.ID, &s.AccountID, &s.LastActivityAt)
		if err != nil {
			return nil, fmt.Errorf("scan stale session: %w", err)
		}

		out = append(out, s)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate stale sessions: %w", err)
	}

	return out, nil
}
