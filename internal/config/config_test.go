package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/invest")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "invest-backend", cfg.JWTIssuer)
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "invest.events", cfg.EventsExchange)
	assert.Equal(t, "10", cfg.MinDeposit.String())
	assert.Equal(t, "10", cfg.MinWithdrawal.String())
	assert.Equal(t, "5", cfg.ReferralCommissionPercent.String())
	assert.Equal(t, "@daily", cfg.YieldJobSchedule)
	assert.Empty(t, cfg.AdminEmails)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("ADMIN_EMAILS", "Boss@Example.com,ops@example.com")
	t.Setenv("MIN_WITHDRAWAL", "25.50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsAdminEmail("boss@example.com"))
	assert.True(t, cfg.IsAdminEmail(" OPS@example.com "))
	assert.False(t, cfg.IsAdminEmail("investor@example.com"))
	assert.Equal(t, "25.5", cfg.MinWithdrawal.String())
}

func TestLoadValidation(t *testing.T) {
	t.Run("postgres requires DATABASE_URL", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.EqualError(t, err, "DATABASE_URL is required")
	})

	t.Run("JWT secret required", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.EqualError(t, err, "JWT_SECRET is required")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mysql")
		t.Setenv("JWT_SECRET", "s3cret")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad amount", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("MIN_DEPOSIT", "ten")
		_, err := Load()
		assert.ErrorContains(t, err, "MIN_DEPOSIT")
	})
}
