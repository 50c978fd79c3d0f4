// Package paycreds manages the versioned payment gateway credentials. Rotation
// writes a new active version; the secret never leaves the package in a View.
package paycreds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/credentials"
	pgcredentials "github.com/fastprodman/arcadeledger/internal/repos/credentials/postgres"
	"github.com/google/uuid"
)

var ErrInvalidCredential = errors.New("invalid payment credential")

type RotateRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	BaseURL      string `json:"baseUrl"`
	WebhookURL   string `json:"webhookUrl"`
}

func (r RotateRequest) validate() error {
	if strings.TrimSpace(r.ClientID) == "" {
		return fmt.Errorf("%w: clientId required", ErrInvalidCredential)
	}

	if strings.TrimSpace(r.ClientSecret) == "" {
		return fmt.Errorf("%w: clientSecret required", ErrInvalidCredential)
	}

	for name, raw := range map[string]string{"baseUrl": r.BaseURL, "webhookUrl": r.WebhookURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			return fmt.Errorf("%w: %s must be an absolute http(s) url", ErrInvalidCredential, name)
		}
	}

	return nil
}

// View is a credential safe to hand to callers: the secret is reduced to a hint.
type View struct {
	ID            uuid.UUID  `json:"id"`
	Version       int64      `json:"version"`
	ClientID      string     `json:"clientId"`
	SecretHint    string     `json:"secretHint"`
	BaseURL       string     `json:"baseUrl"`
	WebhookURL    string     `json:"webhookUrl"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
}

func Redact(c credentials.Credential) View {
	return View{
		ID:            c.ID,
		Version:       c.Version,
		ClientID:      c.ClientID,
		SecretHint:    secretHint(c.ClientSecret),
		BaseURL:       c.BaseURL,
		WebhookURL:    c.WebhookURL,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		DeactivatedAt: c.DeactivatedAt,
	}
}

func secretHint(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}

	return "****" + secret[len(secret)-4:]
}

type Service struct {
	db    *sql.DB
	creds credentials.Credentials
}

func New(dbx *sql.DB) *Service {
	return &Service{db: dbx, creds: pgcredentials.New(dbx)}
}

// Rotate stores req as the next version and makes it the only active one.
func (s *Service) Rotate(ctx context.Context, req RotateRequest) (View, error) {
	err := req.validate()
	if err != nil {
		return View{}, err
	}

	var out credentials.Credential

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.creds.LockRotation(ctx, tx)
		if err != nil {
			return err
		}

		version, err := s.creds.NextVersion(ctx, tx)
		if err != nil {
			return err
		}

		err = s.creds.DeactivateActive(ctx, tx)
		if err != nil {
			return err
		}

		out, err = s.creds.Insert(ctx, tx, credentials.Credential{
			Version:      version,
			ClientID:     strings.TrimSpace(req.ClientID),
			ClientSecret: req.ClientSecret,
			BaseURL:      req.BaseURL,
			WebhookURL:   req.WebhookURL,
		})

		return err
	})
	if err != nil {
		return View{}, fmt.Errorf("rotate credentials: %w", err)
	}

	slog.Info("payment credentials rotated", "credential_id", out.ID, "version", out.Version)

	return Redact(out), nil
}

// Active returns the full active credential, secret included, for the code
// that talks to the gateway.
func (s *Service) Active(ctx context.Context) (credentials.Credential, error) {
	c, err := s.creds.Active(ctx)
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("active credentials: %w", pgutils.Classify(err))
	}

	return c, nil
}

func (s *Service) ActiveView(ctx context.Context) (View, error) {
	c, err := s.Active(ctx)
	if err != nil {
		return View{}, err
	}

	return Redact(c), nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (View, error) {
	c, err := s.creds.Deactivate(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("deactivate credentials: %w", pgutils.Classify(err))
	}

	slog.Info("payment credentials deactivated", "credential_id", c.ID, "version", c.Version)

	return Redact(c), nil
}
