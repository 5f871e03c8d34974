package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/storage"
)

// TestStoreIntegration runs the repository against a live Postgres.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env"} {
		_ = godotenv.Overload(path)
	}
	dbURL := os.Getenv("DATABASE_URL")
	require.NotEmpty(t, dbURL, "DATABASE_URL is required")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	suffix := time.Now().UnixNano()
	profile, err := store.CreateProfile(ctx, models.Profile{
		Email:        fmt.Sprintf("store_%d@example.com", suffix),
		FullName:     "Store Test",
		Role:         models.RoleInvestor,
		Status:       models.StatusActive,
		Balance:      decimal.Zero,
		ReferralCode: fmt.Sprintf("S%07d", suffix%10_000_000),
		PasswordHash: "x",
	})
	require.NoError(t, err)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := store.CreateProfile(ctx, models.Profile{
			Email:        profile.Email,
			FullName:     "Dup",
			Role:         models.RoleInvestor,
			Status:       models.StatusActive,
			ReferralCode: fmt.Sprintf("D%07d", suffix%10_000_000),
			PasswordHash: "x",
		})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})

	t.Run("missing rows map to not found", func(t *testing.T) {
		_, err := store.GetProfile(ctx, -1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("transaction commits ledger and balance together", func(t *testing.T) {
		err := store.WithTx(ctx, func(repo storage.Repository) error {
			if _, err := repo.GetProfileForUpdate(ctx, profile.ID); err != nil {
				return err
			}
			if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{
				UserID:    profile.ID,
				Type:      models.TxDeposit,
				Amount:    decimal.RequireFromString("125.50"),
				Status:    models.TxCompleted,
				Reference: fmt.Sprintf("IT-%d", suffix),
			}); err != nil {
				return err
			}
			return repo.SetBalance(ctx, profile.ID, decimal.RequireFromString("125.50"))
		})
		require.NoError(t, err)

		got, err := store.GetProfile(ctx, profile.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("125.50")), got.Balance.String())

		txs, err := store.ListTransactions(ctx, models.TransactionFilter{UserID: profile.ID})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, models.TxCompleted, txs[0].Status)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithTx(ctx, func(repo storage.Repository) error {
			if err := repo.SetBalance(ctx, profile.ID, decimal.NewFromInt(999)); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := store.GetProfile(ctx, profile.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("125.50")))
	})
}
