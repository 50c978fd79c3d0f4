package pgutils

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	errDomain := errors.New("insufficient funds")

	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{name: "nil", err: nil, wantTransient: false},
		{name: "domain_error", err: errDomain, wantTransient: false},
		{name: "no_rows", err: sql.ErrNoRows, wantTransient: false},
		{name: "bad_conn", err: fmt.Errorf("query: %w", driver.ErrBadConn), wantTransient: true},
		{name: "deadline", err: context.DeadlineExceeded, wantTransient: true},
		{name: "connection_failure", err: &pgconn.PgError{Code: "08006"}, wantTransient: true},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, wantTransient: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, wantTransient: true},
		{name: "admin_shutdown", err: &pgconn.PgError{Code: "57P01"}, wantTransient: true},
		{name: "unique_violation", err: &pgconn.PgError{Code: "23505"}, wantTransient: false},
		{name: "check_violation", err: &pgconn.PgError{Code: "23514"}, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.err)

			if tt.err == nil {
				if got != nil {
					t.Fatalf("want nil, got %v", got)
				}

				return
			}

			if errors.Is(got, ErrStoreUnavailable) != tt.wantTransient {
				t.Fatalf("transient mismatch for %v: got %v", tt.err, got)
			}

			if !errors.Is(got, tt.err) {
				t.Fatalf("original error lost: %v", got)
			}
		})
	}
}

func TestClassify_DoesNotDoubleWrap(t *testing.T) {
	t.Parallel()

	once := Classify(driver.ErrBadConn)
	twice := Classify(once)

	if once != twice {
		t.Fatalf("classified error was wrapped again: %v", twice)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "game_sessions_one_active"})

	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation")
	}

	if !IsUniqueViolation(err, "game_sessions_one_active") {
		t.Fatalf("expected match on constraint name")
	}

	if IsUniqueViolation(err, "ledger_entries_external_ref_key") {
		t.Fatalf("unexpected match on other constraint")
	}

	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatalf("foreign key violation is not unique violation")
	}
}
