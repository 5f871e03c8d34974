package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage"
)

// InternalKeyHeader carries the shared secret other systems use to call functions.
const InternalKeyHeader = "X-Internal-API-Key"

type contextKey int

const (
	profileKey contextKey = iota
	internalKey
)

// ProfileLoader resolves the profile behind a verified token.
type ProfileLoader interface {
	ActiveProfile(ctx context.Context, userID int64) (models.Profile, error)
}

// Authenticate requires a valid bearer token for an active profile and stores
// the profile in the request context.
func Authenticate(tokens *auth.TokenManager, profiles ProfileLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsInternal(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			profile, ok := authenticate(w, r, tokens, profiles, logger)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey, profile)))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, tokens *auth.TokenManager, profiles ProfileLoader, logger *zap.Logger) (models.Profile, bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		respond.Error(w, http.StatusUnauthorized, "missing bearer token")
		return models.Profile{}, false
	}
	claims, err := tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return models.Profile{}, false
	}
	profile, err := profiles.ActiveProfile(r.Context(), claims.UserID)
	switch {
	case errors.Is(err, service.ErrAccountBlocked):
		respond.Error(w, http.StatusForbidden, "account is blocked")
		return models.Profile{}, false
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusUnauthorized, "account no longer exists")
		return models.Profile{}, false
	case err != nil:
		logger.Error("load profile for token failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load profile")
		return models.Profile{}, false
	}
	return profile, true
}

// RequireAdmin rejects callers whose profile is not an administrator. Internal
// callers pass.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsInternal(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		profile, ok := ProfileFromContext(r.Context())
		if !ok || !profile.IsAdmin() {
			respond.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InternalKey marks requests that present the configured internal API key.
// With an empty key the header is ignored.
func InternalKey(key string) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(InternalKeyHeader)
			if len(expected) == 0 || provided == "" {
				next.ServeHTTP(w, r)
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				respond.Error(w, http.StatusUnauthorized, "invalid internal API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), internalKey, true)))
		})
	}
}

// ProfileFromContext returns the authenticated profile, if any.
func ProfileFromContext(ctx context.Context) (models.Profile, bool) {
	p, ok := ctx.Value(profileKey).(models.Profile)
	return p, ok
}

// IsInternal reports whether the request was authenticated by the internal API key.
func IsInternal(ctx context.Context) bool {
	v, _ := ctx.Value(internalKey).(bool)
	return v
}

// WithProfile stores a profile in ctx; used by tests.
func WithProfile(ctx context.Context, p models.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}
