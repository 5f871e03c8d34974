package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/config"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/server"
	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage/postgres"
)

// TestAuthIntegration exercises the register/login/me endpoints against a live Postgres.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	require.NoError(t, err, "init store")
	defer store.Close()

	tokens := auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), mustGetEnv(t, "JWT_ISSUER"), mustGetTTL(t))
	logger := zaptest.NewLogger(t)
	svc := service.New(service.Options{Store: store, Tokens: tokens, Logger: logger})

	router := server.NewRouter(config.Config{CORSOrigins: []string{"*"}}, server.Deps{
		Service: svc,
		Tokens:  tokens,
		Logger:  logger,
		Checks:  nil,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("apitest_%d@example.com", suffix)
	password := fmt.Sprintf("Pass!%d", suffix)

	created := requestRegister(t, ts.URL, map[string]string{
		"email":     email,
		"password":  password,
		"full_name": "API Test",
		"phone":     fmt.Sprintf("+1555%07d", suffix%10_000_000),
	})
	require.Equal(t, email, created.Email)
	require.Equal(t, models.RoleInvestor, created.Role)
	require.NotEmpty(t, created.ReferralCode)

	loggedIn := requestLogin(t, ts.URL, email, password)
	require.Equal(t, created.ID, loggedIn.Profile.ID)
	require.NotEmpty(t, strings.TrimSpace(loggedIn.Token))

	me := requestMe(t, ts.URL, loggedIn.Token)
	require.Equal(t, created.ID, me.ID)
	require.True(t, me.Balance.IsZero())

	t.Logf("created profile %s (id=%d) and logged in via /auth/login", email, created.ID)
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type loginResponseBody struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"profile"`
}

func requestRegister(t *testing.T, baseURL string, payload map[string]string) models.Profile {
	t.Helper()
	var out envelope[models.Profile]
	status := call(t, http.MethodPost, baseURL+"/auth/register", "", payload, &out)
	require.Equal(t, http.StatusCreated, status, out.Message)
	return out.Data
}

func requestLogin(t *testing.T, baseURL, email, password string) loginResponseBody {
	t.Helper()
	var out envelope[loginResponseBody]
	status := call(t, http.MethodPost, baseURL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	require.Equal(t, http.StatusOK, status, out.Message)
	return out.Data
}

func requestMe(t *testing.T, baseURL, token string) models.Profile {
	t.Helper()
	var out envelope[models.Profile]
	status := call(t, http.MethodGet, baseURL+"/me", token, nil, &out)
	require.Equal(t, http.StatusOK, status, out.Message)
	return out.Data
}

func call(t *testing.T, method, url, token string, payload, out any) int {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func mustGetTTL(t *testing.T) time.Duration {
	t.Helper()
	minutesStr := mustGetEnv(t, "JWT_TTL_MINUTES")
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes <= 0 {
		t.Fatalf("invalid JWT_TTL_MINUTES value: %q", minutesStr)
	}
	return time.Duration(minutes) * time.Minute
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
