package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/fastprodman/arcadeledger/internal/services/game"
	"github.com/fastprodman/arcadeledger/internal/services/paycreds"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger embeds the interface so tests only implement what they call.
type fakeLedger struct {
	Ledger

	balanceErr  error
	pendingReq  balance.PendingRequest
	pendingErr  error
	completeRef string
	adjustReq   balance.AdjustRequest
}

func (f *fakeLedger) Balance(_ context.Context, id uuid.UUID) (accounts.Account, error) {
	if f.balanceErr != nil {
		return accounts.Account{}, f.balanceErr
	}

	return accounts.Account{ID: id, Balance: 12345}, nil
}

func (f *fakeLedger) RequestPending(_ context.Context, req balance.PendingRequest) (entries.Entry, error) {
	f.pendingReq = req
	if f.pendingErr != nil {
		return entries.Entry{}, f.pendingErr
	}

	return entries.Entry{ID: uuid.New(), AccountID: req.AccountID, Kind: req.Kind, Amount: req.Amount, Status: entries.StatusPending}, nil
}

func (f *fakeLedger) Complete(_ context.Context, id uuid.UUID, ref string) (balance.Settlement, error) {
	f.completeRef = ref
	return balance.Settlement{Entry: entries.Entry{ID: id, Kind: entries.KindDeposit, Amount: 500, Status: entries.StatusCompleted}, Balance: 500}, nil
}

func (f *fakeLedger) Cancel(context.Context, uuid.UUID) (balance.Settlement, error) {
	return balance.Settlement{}, fmt.Errorf("finalize CANCELLED: %w", balance.ErrAlreadyFinalized)
}

func (f *fakeLedger) Adjust(_ context.Context, req balance.AdjustRequest) (balance.Settlement, error) {
	f.adjustReq = req
	return balance.Settlement{Entry: entries.Entry{Kind: req.Kind, Amount: req.Amount, Status: entries.StatusCompleted}, Balance: req.Amount}, nil
}

type fakeGames struct {
	Games

	advanceErr error
}

func (f *fakeGames) Start(_ context.Context, accountID uuid.UUID) (game.Outcome, error) {
	return game.Outcome{Session: sessions.Session{
		ID: uuid.New(), AccountID: accountID, Status: sessions.StatusActive, Speed: decimal.NewFromInt(1),
	}}, nil
}

func (f *fakeGames) Advance(context.Context, uuid.UUID, uuid.UUID) (game.Outcome, error) {
	return game.Outcome{}, f.advanceErr
}

type fakeCreds struct {
	PaymentCredentials
}

func (fakeCreds) ActiveView(context.Context) (paycreds.View, error) {
	return paycreds.View{Version: 3, ClientID: "client", SecretHint: "****1234", Active: true}, nil
}

func newTestRouter(l *fakeLedger, g *fakeGames) http.Handler {
	return NewRouter(NewHandler(l, g, fakeCreds{}))
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestBalanceHandler(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()

	tests := []struct {
		name       string
		header     string
		ledgerErr  error
		wantStatus int
	}{
		{name: "ok", header: accountID.String(), wantStatus: http.StatusOK},
		{name: "missing_header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "bad_header", header: "42", wantStatus: http.StatusBadRequest},
		{name: "unknown_account", header: accountID.String(), ledgerErr: fmt.Errorf("get balance: %w", accounts.ErrAccountNotFound), wantStatus: http.StatusNotFound},
		{name: "store_down", header: accountID.String(), ledgerErr: fmt.Errorf("get balance: %w", pgutils.ErrStoreUnavailable), wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected", header: accountID.String(), ledgerErr: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestRouter(&fakeLedger{balanceErr: tt.ledgerErr}, &fakeGames{})

			headers := map[string]string{}
			if tt.header != "" {
				headers[HeaderAccountID] = tt.header
			}

			rec := do(t, h, http.MethodGet, "/me/balance", "", headers)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				body := decodeBody(t, rec)
				assert.Equal(t, "123.45", body["balance"])
				assert.Equal(t, accountID.String(), body["accountId"])
			}
		})
	}
}

func TestWithdrawalHandler(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	headers := map[string]string{HeaderAccountID: accountID.String()}

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		l := &fakeLedger{}
		body := `{"amount":"10.5","paymentMethod":"PIX","payout":{"keyType":"EMAIL","key":"a@b.c"}}`

		rec := do(t, newTestRouter(l, &fakeGames{}), http.MethodPost, "/me/withdrawals", body, headers)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		assert.Equal(t, entries.KindWithdrawal, l.pendingReq.Kind)
		assert.Equal(t, int64(1050), l.pendingReq.Amount)
		assert.Equal(t, accountID, l.pendingReq.AccountID)
		require.NotNil(t, l.pendingReq.Payout)
		assert.Equal(t, entries.PayoutEmail, l.pendingReq.Payout.KeyType)
		assert.Equal(t, "10.50", decodeBody(t, rec)["amount"])
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		t.Parallel()

		l := &fakeLedger{pendingErr: fmt.Errorf("request pending: %w", accounts.ErrInsufficientFunds)}
		body := `{"amount":"150.00","payout":{"keyType":"CPF","key":"123"}}`

		rec := do(t, newTestRouter(l, &fakeGames{}), http.MethodPost, "/me/withdrawals", body, headers)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "insufficient funds", decodeBody(t, rec)["error"])
	})

	t.Run("bad_amount", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newTestRouter(&fakeLedger{}, &fakeGames{}), http.MethodPost, "/me/withdrawals", `{"amount":"1.234"}`, headers)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown_field", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newTestRouter(&fakeLedger{}, &fakeGames{}), http.MethodPost, "/me/withdrawals", `{"amount":"1","foo":1}`, headers)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGameHandlers(t *testing.T) {
	t.Parallel()

	headers := map[string]string{HeaderAccountID: uuid.NewString()}

	g := &fakeGames{advanceErr: fmt.Errorf("advance session: %w", sessions.ErrSessionNotFound)}
	h := newTestRouter(&fakeLedger{}, g)

	rec := do(t, h, http.MethodPost, "/me/game/sessions", "", headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	session, ok := decodeBody(t, rec)["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ACTIVE", session["status"])
	assert.Equal(t, "1", session["speed"])

	rec = do(t, h, http.MethodPost, "/me/game/sessions/"+uuid.NewString()+"/advance", "", headers)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/me/game/sessions/not-a-uuid/advance", "", headers)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentCallbacks(t *testing.T) {
	t.Parallel()

	l := &fakeLedger{}
	h := newTestRouter(l, &fakeGames{})
	entryID := uuid.NewString()

	rec := do(t, h, http.MethodPost, "/payments/entries/"+entryID+"/complete", `{"externalRef":"PIX_9"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PIX_9", l.completeRef)
	assert.Equal(t, "5.00", decodeBody(t, rec)["balance"])

	rec = do(t, h, http.MethodPost, "/payments/entries/"+entryID+"/cancel", "", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/payments/entries/"+entryID+"/refund", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandlers(t *testing.T) {
	t.Parallel()

	l := &fakeLedger{}
	h := newTestRouter(l, &fakeGames{})
	accountID := uuid.New()
	path := "/admin/accounts/" + accountID.String() + "/adjust"
	body := `{"kind":"deposit","amount":"2.00","reason":"goodwill"}`

	rec := do(t, h, http.MethodPost, path, body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, path, body, map[string]string{HeaderAdminID: "ops-7"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, balance.AdjustRequest{
		AccountID: accountID, Kind: entries.KindDeposit, Amount: 200, Reason: "goodwill", AdminID: "ops-7",
	}, l.adjustReq)

	rec = do(t, h, http.MethodGet, "/admin/payment-credentials", "", map[string]string{HeaderAdminID: "ops-7"})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "****1234", got["secretHint"])
	assert.NotContains(t, got, "clientSecret")
}

func TestParseAmountCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1", want: 100},
		{in: "1.5", want: 150},
		{in: "+0.01", want: 1},
		{in: " 12.34 ", want: 1234},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: ".5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "92233720368547757.99", want: 9_223_372_036_854_775_799},
		{in: "92233720368547758", wantErr: true},
		{in: "184467440737095517", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseAmountCents(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}

		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.00", formatCents(0))
	assert.Equal(t, "0.07", formatCents(7))
	assert.Equal(t, "4.20", formatCents(420))
	assert.Equal(t, "-1.05", formatCents(-105))
}
