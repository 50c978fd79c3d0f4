package credentials

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoActiveCredential = errors.New("no active payment credential")
	ErrCredentialNotFound = errors.New("payment credential not found")
)

// Credential is one version of the payment gateway client credentials.
// At most one version is active at a time.
type Credential struct {
	ID            uuid.UUID
	Version       int64
	ClientID      string
	ClientSecret  string
	BaseURL       string
	WebhookURL    string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeactivatedAt *time.Time
}

type Credentials interface {
	// LockRotation serializes rotations for the lifetime of tx.
	LockRotation(ctx context.Context, tx *sql.Tx) error
	NextVersion(ctx context.Context, tx *sql.Tx) (int64, error)
	DeactivateActive(ctx context.Context, tx *sql.Tx) error
	Insert(ctx context.Context, tx *sql.Tx, c Credential) (Credential, error)
	Active(ctx context.Context) (Credential, error)
	Deactivate(ctx context.Context, id uuid.UUID) (Credential, error)
}
