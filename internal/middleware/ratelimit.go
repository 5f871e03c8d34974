package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/http/respond"
	"github.com/hongminglow/invest-be/internal/metrics"
)

// Limiter consumes rate limit budget.
type Limiter interface {
	Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, int, error)
}

// KeyFunc picks the subject a request is limited by.
type KeyFunc func(r *http.Request) string

// ByClientIP keys on the remote address, after chi's RealIP has rewritten it.
func ByClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ByProfile keys on the authenticated profile id.
func ByProfile(r *http.Request) string {
	if p, ok := ProfileFromContext(r.Context()); ok {
		return strconv.FormatInt(p.ID, 10)
	}
	return ByClientIP(r)
}

// RateLimit allows limit requests per minute per key. Limiter errors fail open.
func RateLimit(limiter Limiter, scope string, limit int, key KeyFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := limiter.Allow(r.Context(), scope, key(r), limit, time.Minute)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", zap.String("scope", scope), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RecordRateLimited(scope)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respond.Error(w, http.StatusTooManyRequests, "too many requests, retry in "+strconv.Itoa(retryAfter)+"s")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
