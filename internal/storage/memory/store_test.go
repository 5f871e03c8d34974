package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/storage"
)

func TestCreateProfileUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateProfile(ctx, models.Profile{Email: "ana@example.com", ReferralCode: "AAA"})
	require.NoError(t, err)

	_, err = s.CreateProfile(ctx, models.Profile{Email: "ANA@example.com", ReferralCode: "BBB"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = s.CreateProfile(ctx, models.Profile{Email: "bob@example.com", ReferralCode: "aaa"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := s.FindProfileByReferralCode(ctx, "aaa")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, err := s.CreateProfile(ctx, models.Profile{Email: "ana@example.com", ReferralCode: "AAA"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(repo storage.Repository) error {
		if err := repo.SetBalance(ctx, p.ID, decimal.NewFromInt(500)); err != nil {
			return err
		}
		if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{UserID: p.ID, Type: models.TxDeposit}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	txs, err := s.ListTransactions(ctx, models.TransactionFilter{UserID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, err := s.CreateProfile(ctx, models.Profile{Email: "ana@example.com", ReferralCode: "AAA"})
	require.NoError(t, err)

	require.NoError(t, s.WithTx(ctx, func(repo storage.Repository) error {
		return repo.SetBalance(ctx, p.ID, decimal.RequireFromString("12.345"))
	}))

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.35", got.Balance.String())
}

func TestListOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := base
	s.SetClock(func() time.Time { return tick })

	p, err := s.CreateProfile(ctx, models.Profile{Email: "ana@example.com", ReferralCode: "AAA"})
	require.NoError(t, err)

	for i, txType := range []string{models.TxDeposit, models.TxWithdrawal, models.TxDeposit} {
		tick = base.Add(time.Duration(i) * time.Minute)
		_, err := s.CreateTransaction(ctx, models.WalletTransaction{UserID: p.ID, Type: txType, Status: models.TxCompleted})
		require.NoError(t, err)
	}

	all, err := s.ListTransactions(ctx, models.TransactionFilter{UserID: p.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[2].CreatedAt))

	deposits, err := s.ListTransactions(ctx, models.TransactionFilter{UserID: p.ID, Type: models.TxDeposit, Limit: 1})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, base.Add(2*time.Minute), deposits[0].CreatedAt)
}

func TestNotificationsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	ana, _ := s.CreateProfile(ctx, models.Profile{Email: "ana@example.com", ReferralCode: "AAA"})
	bob, _ := s.CreateProfile(ctx, models.Profile{Email: "bob@example.com", ReferralCode: "BBB"})

	n, err := s.CreateNotification(ctx, models.Notification{UserID: ana.ID, Title: "hi", Message: "there"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, bob.ID, n.ID), storage.ErrNotFound)
	require.NoError(t, s.MarkNotificationRead(ctx, ana.ID, n.ID))

	unread, err := s.ListNotifications(ctx, ana.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestWithTxRollsBackWhenContextEnds(t *testing.T) {
	s := New()
	p, err := s.CreateProfile(context.Background(), models.Profile{Email: "ana@example.com", ReferralCode: "AAA"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	err = s.WithTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{UserID: p.ID, Type: models.TxDeposit}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	txs, err := s.ListTransactions(context.Background(), models.TransactionFilter{UserID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, txs)
}
