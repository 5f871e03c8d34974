package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/config"
	"github.com/hongminglow/invest-be/internal/middleware"
	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage/memory"
)

const internalKey = "internal-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type limiterStub struct {
	allow bool
	deny  map[string]bool
	err   error
	calls []string
}

func (l *limiterStub) Allow(_ context.Context, scope, subject string, _ int, _ time.Duration) (bool, int, error) {
	l.calls = append(l.calls, scope+":"+subject)
	if l.deny != nil {
		return !l.deny[scope], 42, l.err
	}
	return l.allow, 42, l.err
}

type harness struct {
	t  *testing.T
	ts *httptest.Server
}

func newHarness(t *testing.T, limiter middleware.Limiter) *harness {
	t.Helper()
	if limiter == nil {
		limiter = &limiterStub{allow: true}
	}
	logger := zap.NewNop()
	tokens := auth.NewTokenManager("test-secret", "invest-test", time.Hour)
	svc := service.New(service.Options{
		Store:  memory.New(),
		Tokens: tokens,
		Logger: logger,
		Settings: service.Settings{
			MinDeposit:                decimal.NewFromInt(10),
			MinWithdrawal:             decimal.NewFromInt(10),
			ReferralCommissionPercent: decimal.NewFromInt(5),
			AdminEmails:               []string{"admin@example.com"},
		},
	})
	cfg := config.Config{
		CORSOrigins:             []string{"*"},
		InternalAPIKey:          internalKey,
		LoginRateLimitPerMinute: 10,
		WithdrawRateLimitPerMin: 5,
	}
	ts := httptest.NewServer(NewRouter(cfg, Deps{Service: svc, Tokens: tokens, Limiter: limiter, Logger: logger}))
	t.Cleanup(ts.Close)
	return &harness{t: t, ts: ts}
}

func (h *harness) do(method, path, token string, body any, headers ...string) (int, envelope, http.Header) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.ts.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env, resp.Header
}

// signup registers and logs in, returning the profile id and token.
func (h *harness) signup(email string) (int64, string) {
	h.t.Helper()
	status, env, _ := h.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":     email,
		"password":  "correct-horse",
		"full_name": "Test User",
	})
	require.Equal(h.t, http.StatusCreated, status, env.Message)

	status, env, _ = h.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(h.t, http.StatusOK, status, env.Message)
	var login struct {
		Token   string `json:"token"`
		Profile struct {
			ID int64 `json:"id"`
		} `json:"profile"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(h.t, login.Token)
	return login.Profile.ID, login.Token
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t, nil)
	id, token := h.signup("alice@example.com")

	status, env, _ := h.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decodeData[map[string]any](t, env)
	assert.Equal(t, "alice@example.com", me["email"])
	assert.EqualValues(t, id, me["id"])
	assert.NotContains(t, me, "password_hash")

	status, _, _ = h.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ALICE@example.com", "password": "another-pass", "full_name": "Dup",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _, _ = h.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env, _ = h.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Message)
}

func TestAuthenticationRequired(t *testing.T) {
	h := newHarness(t, nil)

	status, _, _ := h.do(http.MethodGet, "/wallet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = h.do(http.MethodGet, "/wallet", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env, _ := h.do(http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestAdminRoutesRejectInvestors(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.signup("bob@example.com")

	for _, path := range []string{"/admin/stats", "/admin/users", "/admin/withdrawals", "/admin/logs"} {
		status, _, _ := h.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
	}
}

func TestDepositReviewAndWallet(t *testing.T) {
	h := newHarness(t, nil)
	_, admin := h.signup("admin@example.com")
	_, investor := h.signup("carol@example.com")

	status, env, _ := h.do(http.MethodPost, "/bank-transfers", investor, map[string]any{
		"amount": "250.00", "bank_name": "First Bank", "sender_name": "Carol",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	transfer := decodeData[struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}](t, env)
	assert.Equal(t, "pending", transfer.Status)

	confirmPath := fmt.Sprintf("/admin/bank-transfers/%d/confirm", transfer.ID)
	status, _, _ = h.do(http.MethodPost, confirmPath, investor, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env, _ = h.do(http.MethodPost, confirmPath, admin, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _, _ = h.do(http.MethodPost, confirmPath, admin, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, env, _ = h.do(http.MethodGet, "/wallet", investor, nil)
	require.Equal(t, http.StatusOK, status)
	wallet := decodeData[struct {
		Balance decimal.Decimal `json:"balance"`
	}](t, env)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(250)), wallet.Balance.String())

	status, _, _ = h.do(http.MethodPost, "/withdrawals", investor, map[string]any{
		"amount": "1000", "bank_name": "First Bank", "account_name": "Carol", "account_number": "123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = h.do(http.MethodPost, "/admin/bank-transfers/9999/confirm", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBlockedAccountIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	_, admin := h.signup("admin@example.com")
	id, investor := h.signup("dave@example.com")

	status, env, _ := h.do(http.MethodPatch, fmt.Sprintf("/admin/users/%d", id), admin, map[string]any{"status": "blocked"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _, _ = h.do(http.MethodGet, "/me", investor, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = h.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "dave@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestFunctionsAccess(t *testing.T) {
	h := newHarness(t, nil)
	_, admin := h.signup("admin@example.com")
	aliceID, alice := h.signup("alice@example.com")

	status, env, _ := h.do(http.MethodPost, "/functions/recalculate-balance", alice, map[string]any{})
	require.Equal(t, http.StatusOK, status, env.Message)
	recalc := decodeData[map[string]any](t, env)
	assert.EqualValues(t, aliceID, recalc["user_id"])

	status, _, _ = h.do(http.MethodPost, "/functions/recalculate-balance", alice, map[string]any{"user_id": aliceID + 100})
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = h.do(http.MethodPost, "/functions/recalculate-balance", admin, map[string]any{"user_id": aliceID})
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = h.do(http.MethodPost, "/functions/recalculate-balance", "", map[string]any{"user_id": aliceID},
		middleware.InternalKeyHeader, internalKey)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = h.do(http.MethodPost, "/functions/recalculate-balance", "", map[string]any{},
		middleware.InternalKeyHeader, internalKey)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = h.do(http.MethodPost, "/functions/recalculate-balance", "", map[string]any{"user_id": aliceID},
		middleware.InternalKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = h.do(http.MethodPost, "/functions/send-email", alice, map[string]any{
		"email": "x@example.com", "template": "generic",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env, _ = h.do(http.MethodPost, "/functions/send-email", "", map[string]any{
		"user_id": aliceID, "template": "welcome",
	}, middleware.InternalKeyHeader, internalKey)
	require.Equal(t, http.StatusOK, status, env.Message)
	sent := decodeData[map[string]any](t, env)
	assert.Equal(t, "alice@example.com", sent["to"])

	status, _, _ = h.do(http.MethodPost, "/functions/send-email", admin, map[string]any{
		"email": "x@example.com", "template": "no-such-template",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginRateLimited(t *testing.T) {
	limiter := &limiterStub{allow: false}
	h := newHarness(t, limiter)

	status, env, header := h.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "eve@example.com", "password": "whatever1",
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "42", header.Get("Retry-After"))
	assert.Contains(t, env.Message, "too many requests")
	require.Len(t, limiter.calls, 1)
	assert.Contains(t, limiter.calls[0], "login:")
}

func TestWithdrawalRateLimitedPerProfile(t *testing.T) {
	limiter := &limiterStub{deny: map[string]bool{"withdrawal": true}}
	h := newHarness(t, limiter)
	id, token := h.signup("wendy@example.com")
	limiter.calls = nil

	status, env, header := h.do(http.MethodPost, "/withdrawals", token, map[string]any{
		"amount":         "50",
		"bank_name":      "Test Bank",
		"account_number": "123456",
		"account_name":   "Wendy",
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "42", header.Get("Retry-After"))
	assert.Contains(t, env.Message, "too many requests")
	assert.Equal(t, []string{fmt.Sprintf("withdrawal:%d", id)}, limiter.calls)

	// Listing is not guarded.
	status, _, _ = h.do(http.MethodGet, "/withdrawals", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	h := newHarness(t, &limiterStub{allow: false, err: fmt.Errorf("redis down")})

	status, _, _ := h.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "eve@example.com", "password": "whatever1",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUnknownRouteAndHealth(t *testing.T) {
	h := newHarness(t, nil)

	status, env, _ := h.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "route not found", env.Message)

	status, env, _ = h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Message)
}

func TestInvestmentFlow(t *testing.T) {
	h := newHarness(t, nil)
	_, admin := h.signup("admin@example.com")
	_, investor := h.signup("frank@example.com")
	_, other := h.signup("grace@example.com")

	status, env, _ := h.do(http.MethodPost, "/admin/projects", admin, map[string]any{
		"title":                "Solar Farm",
		"target_amount":        "10000",
		"min_investment":       "100",
		"annual_yield_percent": "12",
		"duration_months":      12,
		"status":               "open",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	project := decodeData[struct {
		ID int64 `json:"id"`
	}](t, env)

	status, env, _ = h.do(http.MethodPost, "/bank-transfers", investor, map[string]any{
		"amount": "500", "bank_name": "First Bank", "sender_name": "Frank",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	transferID := decodeData[struct {
		ID int64 `json:"id"`
	}](t, env).ID
	status, _, _ = h.do(http.MethodPost, fmt.Sprintf("/admin/bank-transfers/%d/confirm", transferID), admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, env, _ = h.do(http.MethodPost, "/investments", investor, map[string]any{"project_id": project.ID, "amount": "50"})
	assert.Equal(t, http.StatusBadRequest, status, env.Message)

	status, env, _ = h.do(http.MethodPost, "/investments", investor, map[string]any{"project_id": project.ID, "amount": "400"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	inv := decodeData[struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}](t, env)
	assert.Equal(t, "active", inv.Status)

	status, _, _ = h.do(http.MethodPost, "/investments", investor, map[string]any{"project_id": project.ID, "amount": "400"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	assert.JSONEq(t, `{"count":1}`, metaOf(t, h, "/investments", investor))

	assert.JSONEq(t, `{"count":2}`, metaOf(t, h, "/wallet/transactions", investor))
	assert.JSONEq(t, `{"count":3}`, metaOf(t, h, "/admin/users", admin))

	invPath := fmt.Sprintf("/investments/%d", inv.ID)
	status, _, _ = h.do(http.MethodGet, invPath, other, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _, _ = h.do(http.MethodGet, invPath, investor, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env, _ = h.do(http.MethodGet, "/wallet", investor, nil)
	require.Equal(t, http.StatusOK, status)
	wallet := decodeData[struct {
		Balance       decimal.Decimal `json:"balance"`
		TotalInvested decimal.Decimal `json:"total_invested"`
	}](t, env)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)), wallet.Balance.String())
	assert.True(t, wallet.TotalInvested.Equal(decimal.NewFromInt(400)), wallet.TotalInvested.String())
}

// metaOf returns the raw meta object of a list endpoint.
func metaOf(t *testing.T, h *harness, path, token string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Meta json.RawMessage `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return string(body.Meta)
}
