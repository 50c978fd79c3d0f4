package sessions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
)

func (r *sessionsRepo) Insert(ctx context.Context, tx *sql.Tx, s sessions.Session) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO game_sessions
			(id, account_id, status, score, speed, earned_amount, started_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.AccountID, string(s.Status), s.Score, s.Speed, s.EarnedAmount, s.StartedAt, s.LastActivityAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "game_sessions_one_active") {
			return sessions.ErrActiveSessionExists
		}

		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Update writes the mutable session state. Ended sessions are never
// written again.
func (r *sessionsRepo) Update(ctx context.Context, tx *sql.Tx, s sessions.Session) error {
	var endReason any
	if s.EndReason != "" {
		endReason = string(s.EndReason)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE game_sessions
		SET status = $2,
		    score = $3,
		    speed = $4,
		    earned_amount = $5,
		    end_reason = $6,
		    last_activity_at = $7,
		    ended_at = $8
		WHERE id = $1
		  AND status = 'ACTIVE'
	`, s.ID, string(s.Status), s.Score, s.Speed, s.EarnedAmount, endReason, s.LastActivityAt, nullableTime(s.EndedAt))
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return sessions.ErrSessionNotFound
	}

	return nil
}
