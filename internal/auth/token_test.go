package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/invest-be/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "invest-test", time.Hour)
	token, err := tm.Generate(models.Profile{ID: 42, Email: "ana@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.IsAdmin())
}

func TestParseRejectsUntrustedTokens(t *testing.T) {
	tm := NewTokenManager("secret", "invest-test", time.Hour)
	token, err := tm.Generate(models.Profile{ID: 7, Role: models.RoleInvestor})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", "invest-test", time.Hour)
		_, err := other.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager("secret", "someone-else", time.Hour)
		_, err := other.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", "invest-test", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Parse("not.a.jwt")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}
