package credentials

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/fastprodman/arcadeledger/internal/infra/pgtestutil"
	"github.com/fastprodman/arcadeledger/internal/repos/credentials"
	"github.com/google/uuid"
)

func rotate(t *testing.T, db *sql.DB, repo *credentialsRepo, clientID string) credentials.Credential {
	t.Helper()

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.LockRotation(t.Context(), tx)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	v, err := repo.NextVersion(t.Context(), tx)
	if err != nil {
		t.Fatalf("next version: %v", err)
	}

	err = repo.DeactivateActive(t.Context(), tx)
	if err != nil {
		t.Fatalf("deactivate active: %v", err)
	}

	c, err := repo.Insert(t.Context(), tx, credentials.Credential{
		Version: v, ClientID: clientID, ClientSecret: "s3cret",
		BaseURL: "https://pay.example.com", WebhookURL: "https://ledger.example.com/payments",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	return c
}

func TestCredentials_RotateKeepsSingleActive(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	_, err := repo.Active(t.Context())
	if !errors.Is(err, credentials.ErrNoActiveCredential) {
		t.Fatalf("want ErrNoActiveCredential on empty table, got %v", err)
	}

	first := rotate(t, db, repo, "client-a")
	second := rotate(t, db, repo, "client-b")

	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("versions: want 1 and 2, got %d and %d", first.Version, second.Version)
	}

	active, err := repo.Active(t.Context())
	if err != nil {
		t.Fatalf("active: %v", err)
	}

	if active.ID != second.ID || active.ClientID != "client-b" {
		t.Fatalf("unexpected active credential: %+v", active)
	}

	var activeCount int

	err = db.QueryRowContext(t.Context(), `SELECT count(*) FROM payment_credentials WHERE active`).Scan(&activeCount)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if activeCount != 1 {
		t.Fatalf("want exactly one active credential, got %d", activeCount)
	}
}

func TestCredentials_Deactivate(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	c := rotate(t, db, repo, "client-a")

	got, err := repo.Deactivate(t.Context(), c.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if got.Active || got.DeactivatedAt == nil {
		t.Fatalf("credential still active: %+v", got)
	}

	_, err = repo.Active(t.Context())
	if !errors.Is(err, credentials.ErrNoActiveCredential) {
		t.Fatalf("want ErrNoActiveCredential, got %v", err)
	}

	again, err := repo.Deactivate(t.Context(), c.ID)
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}

	if !again.DeactivatedAt.Equal(*got.DeactivatedAt) {
		t.Fatalf("deactivation time moved: %v -> %v", got.DeactivatedAt, again.DeactivatedAt)
	}

	_, err = repo.Deactivate(t.Context(), uuid.New())
	if !errors.Is(err, credentials.ErrCredentialNotFound) {
		t.Fatalf("want ErrCredentialNotFound, got %v", err)
	}
}
