package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type profilesStub map[int64]error

func (p profilesStub) ActiveProfile(_ context.Context, userID int64) (models.Profile, error) {
	if err, found := p[userID]; found && err != nil {
		return models.Profile{}, err
	}
	return models.Profile{ID: userID, Role: models.RoleInvestor, Status: models.StatusActive}, nil
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com/"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://APP.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://APP.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), InternalKeyHeader)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "issuer", time.Hour)
	profiles := profilesStub{2: service.ErrAccountBlocked, 3: storage.ErrNotFound, 4: errors.New("db down")}

	var seen models.Profile
	h := Authenticate(tokens, profiles, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ProfileFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tokenFor := func(id int64) string {
		raw, err := tokens.Generate(models.Profile{ID: id, Email: "u@example.com", Role: models.RoleInvestor})
		require.NoError(t, err)
		return "Bearer " + raw
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"active", tokenFor(1), http.StatusOK},
		{"blocked", tokenFor(2), http.StatusForbidden},
		{"deleted", tokenFor(3), http.StatusUnauthorized},
		{"store failure", tokenFor(4), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, int64(1), seen.ID)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(okHandler)

	run := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, run(context.Background()))
	assert.Equal(t, http.StatusForbidden, run(WithProfile(context.Background(), models.Profile{ID: 1, Role: models.RoleInvestor})))
	assert.Equal(t, http.StatusOK, run(WithProfile(context.Background(), models.Profile{ID: 1, Role: models.RoleAdmin})))
	assert.Equal(t, http.StatusOK, run(context.WithValue(context.Background(), internalKey, true)))
}

func TestInternalKey(t *testing.T) {
	var internal bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internal = IsInternal(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	run := func(key, header string) int {
		internal = false
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set(InternalKeyHeader, header)
		}
		rec := httptest.NewRecorder()
		InternalKey(key)(inner).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("s3cret", "s3cret"))
	assert.True(t, internal)

	assert.Equal(t, http.StatusUnauthorized, run("s3cret", "guess"))

	assert.Equal(t, http.StatusOK, run("s3cret", ""))
	assert.False(t, internal)

	assert.Equal(t, http.StatusOK, run("", "anything"))
	assert.False(t, internal, "an unset key never marks requests internal")
}

type limiterStub struct {
	allowed  bool
	err      error
	subjects []string
}

func (l *limiterStub) Allow(_ context.Context, scope, subject string, _ int, window time.Duration) (bool, int, error) {
	l.subjects = append(l.subjects, scope+"/"+subject)
	return l.allowed, 17, l.err
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects over budget", func(t *testing.T) {
		limiter := &limiterStub{allowed: false}
		h := RateLimit(limiter, "withdrawal", 5, ByProfile, zap.NewNop())(okHandler)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithProfile(req.Context(), models.Profile{ID: 9}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "17", rec.Header().Get("Retry-After"))
		assert.Equal(t, []string{"withdrawal/9"}, limiter.subjects)
	})

	t.Run("fails open and logs", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		limiter := &limiterStub{err: errors.New("redis unavailable")}
		h := RateLimit(limiter, "login", 5, ByClientIP, zap.New(core))(okHandler)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"login/203.0.113.7"}, limiter.subjects)
		assert.Equal(t, 1, logs.FilterMessage("rate limiter unavailable, allowing request").Len())
	})
}

func TestLoggingLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadGateway} {
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.EqualValues(t, http.StatusBadGateway, entries[2].ContextMap()["status"])
}
