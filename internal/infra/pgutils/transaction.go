package pgutils

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back. Transient failures
// (see Classify) come back wrapped in ErrStoreUnavailable.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil) // default isolation level
	if err != nil {
		return fmt.Errorf("begin tx: %w", Classify(err))
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, Classify(err))
		}
		return Classify(err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", Classify(err))
	}

	return nil
}
