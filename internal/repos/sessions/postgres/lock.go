package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/google/uuid"
)

// LockActiveByAccount locks the account's ACTIVE session, if any.
func (r *sessionsRepo) LockActiveByAccount(ctx context.Context, tx *sql.Tx, accountID uuid.UUID) (sessions.Session, error) {
	s, err := scanSession(tx.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE account_id = $1
		  AND status = 'ACTIVE'
		FOR UPDATE
	`, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("lock active session: %w", err)
	}

	return s, nil
}

func (r *sessionsRepo) LockByID(ctx context.Context, tx *sql.Tx, id uuid.UUID) (sessions.Session, error) {
	s, err := scanSession(tx.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("lock session: %w", err)
	}

	return s, nil
}
