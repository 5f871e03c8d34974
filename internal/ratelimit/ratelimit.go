package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Limiter is a fixed-window counter shared through Redis so every replica sees
// the same budget.
type Limiter struct {
	client redis.UniversalClient
	prefix string
}

// New returns a limiter. A nil client yields a limiter that allows everything.
func New(client redis.UniversalClient, prefix string) *Limiter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "invest:rate_limit"
	}
	return &Limiter{client: client, prefix: trimmed}
}

// NewFromURL parses a redis:// URL. An empty URL disables limiting.
func NewFromURL(rawURL, prefix string) (*Limiter, error) {
	if strings.TrimSpace(rawURL) == "" {
		return New(nil, prefix), nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(redis.NewClient(opts), prefix), nil
}

// Enabled reports whether a Redis client backs the limiter.
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil
}

// Ping checks Redis connectivity. A disabled limiter is always healthy.
func (l *Limiter) Ping(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (l *Limiter) Close() error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Close()
}

// Allow consumes one unit from the scope/subject window. retryAfter is the
// number of seconds until the window resets and is only meaningful when the
// call is rejected.
func (l *Limiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, int, error) {
	if !l.Enabled() || limit <= 0 || window <= 0 {
		return true, 0, nil
	}

	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return true, 0, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, subject)
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return true, 0, err
	}
	count, ttlMs, err := parseResult(raw)
	if err != nil {
		return true, 0, err
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return count <= int64(limit), retryAfter, nil
}

func parseResult(raw any) (int64, int64, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected limiter count type: %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return count, 0, fmt.Errorf("unexpected limiter ttl type: %T", values[1])
	}
	return count, ttl, nil
}
