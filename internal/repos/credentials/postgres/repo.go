package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/arcadeledger/internal/repos/credentials"
	"github.com/google/uuid"
)

var _ credentials.Credentials = (*credentialsRepo)(nil)

// rotationLockKey is the advisory lock id taken while rotating credentials.
const rotationLockKey int64 = 0x70617963726564 // "paycred"

type credentialsRepo struct{ db *sql.DB }

func New(db *sql.DB) *credentialsRepo {
	return &credentialsRepo{db: db}
}

const credentialColumns = `id, version, client_id, client_secret, base_url, webhook_url,
	active, created_at, updated_at, deactivated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (credentials.Credential, error) {
	var (
		c             credentials.Credential
		deactivatedAt sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.Version, &c.ClientID, &c.ClientSecret, &c.BaseURL, &c.WebhookURL,
		&c.Active, &c.CreatedAt, &c.UpdatedAt, &deactivatedAt,
	)
	if err != nil {
		return credentials.Credential{}, err
	}

	if deactivatedAt.Valid {
		t := deactivatedAt.Time
		c.DeactivatedAt = &t
	}

	return c, nil
}

func (r *credentialsRepo) LockRotation(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, rotationLockKey)
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}

	return nil
}

func (r *credentialsRepo) NextVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	var v int64

	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM payment_credentials`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}

	return v, nil
}

func (r *credentialsRepo) DeactivateActive(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payment_credentials
		SET active = FALSE, deactivated_at = now(), updated_at = now()
		WHERE active
	`)
	if err != nil {
		return fmt.Errorf("deactivate active credential: %w", err)
	}

	return nil
}

func (r *credentialsRepo) Insert(ctx context.Context, tx *sql.Tx, c credentials.Credential) (credentials.Credential, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	out, err := scanCredential(tx.QueryRowContext(ctx, `
		INSERT INTO payment_credentials (id, version, client_id, client_secret, base_url, webhook_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING `+credentialColumns,
		c.ID, c.Version, c.ClientID, c.ClientSecret, c.BaseURL, c.WebhookURL,
	))
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("insert credential: %w", err)
	}

	return out, nil
}

func (r *credentialsRepo) Active(ctx context.Context) (credentials.Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+`
		FROM payment_credentials
		WHERE active
	`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return credentials.Credential{}, credentials.ErrNoActiveCredential
		}

		return credentials.Credential{}, fmt.Errorf("get active credential: %w", err)
	}

	return c, nil
}

// Deactivate turns off the given version. Deactivating an inactive version
// is a no-op that returns its current state.
func (r *credentialsRepo) Deactivate(ctx context.Context, id uuid.UUID) (credentials.Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx, `
		UPDATE payment_credentials
		SET active = FALSE,
		    deactivated_at = COALESCE(deactivated_at, now()),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+credentialColumns,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return credentials.Credential{}, credentials.ErrCredentialNotFound
		}

		return credentials.Credential{}, fmt.Errorf("deactivate credential: %w", err)
	}

	return c, nil
}
