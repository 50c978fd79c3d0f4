package paycreds

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fastprodman/arcadeledger/internal/infra/pgtestutil"
	"github.com/fastprodman/arcadeledger/internal/repos/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest(clientID string) RotateRequest {
	return RotateRequest{
		ClientID:     clientID,
		ClientSecret: "sk_live_abcdef1234",
		BaseURL:      "https://api.gateway.example",
		WebhookURL:   "https://ledger.example/payments",
	}
}

func TestRotateRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *RotateRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(*RotateRequest) {}},
		{name: "blank_client_id", mutate: func(r *RotateRequest) { r.ClientID = "  " }, wantErr: true},
		{name: "missing_secret", mutate: func(r *RotateRequest) { r.ClientSecret = "" }, wantErr: true},
		{name: "relative_base_url", mutate: func(r *RotateRequest) { r.BaseURL = "/api" }, wantErr: true},
		{name: "ftp_webhook", mutate: func(r *RotateRequest) { r.WebhookURL = "ftp://x.example" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := validRequest("client")
			tt.mutate(&r)

			err := r.validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCredential)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRedact_HidesSecret(t *testing.T) {
	t.Parallel()

	v := Redact(credentials.Credential{ClientID: "c", ClientSecret: "sk_live_abcdef1234"})

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "sk_live_abcdef1234")
	assert.Equal(t, "****1234", v.SecretHint)
	assert.Equal(t, "****", Redact(credentials.Credential{ClientSecret: "abc"}).SecretHint)
}

func TestService_RotateAndDeactivate(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	svc := New(db)
	ctx := t.Context()

	_, err := svc.Active(ctx)
	require.ErrorIs(t, err, credentials.ErrNoActiveCredential)

	_, err = svc.Rotate(ctx, RotateRequest{ClientID: "x"})
	require.ErrorIs(t, err, ErrInvalidCredential)

	var wg sync.WaitGroup

	for i := range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, rerr := svc.Rotate(ctx, validRequest("client-"+strings.Repeat("x", i)))
			assert.NoError(t, rerr)
		}()
	}

	wg.Wait()

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), active.Version)
	assert.Equal(t, "sk_live_abcdef1234", active.ClientSecret)

	view, err := svc.Deactivate(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, view.Active)
	assert.NotNil(t, view.DeactivatedAt)

	_, err = svc.ActiveView(ctx)
	require.True(t, errors.Is(err, credentials.ErrNoActiveCredential), "got %v", err)
}
