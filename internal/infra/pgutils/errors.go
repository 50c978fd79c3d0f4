package pgutils

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStoreUnavailable marks a failure of the database itself rather than of
// the request: lost connections, serialization or deadlock aborts, shutdown.
var ErrStoreUnavailable = errors.New("store unavailable")

const uniqueViolation = "23505"

// Classify wraps err in ErrStoreUnavailable when it is transient. Domain
// errors and already classified errors are returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}

	if IsTransient(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return err
}

// IsTransient reports whether err is an infrastructure failure worth retrying later.
func IsTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) < 2:
			return false
		case pgErr.Code[:2] == "08": // connection exception
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01": // serialization failure, deadlock
			return true
		case pgErr.Code[:2] == "57": // operator intervention (admin shutdown, cancel)
			return true
		case pgErr.Code[:2] == "53": // insufficient resources
			return true
		}

		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// IsUniqueViolation reports whether err is a unique_violation, optionally on
// a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
