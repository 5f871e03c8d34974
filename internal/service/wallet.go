package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/finance"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// WalletSummary reports the balance, available funds and lifetime totals.
func (s *Service) WalletSummary(ctx context.Context, userID int64) (models.WalletSummary, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.WalletSummary{}, err
	}
	txs, err := s.store.ListTransactions(ctx, models.TransactionFilter{UserID: userID})
	if err != nil {
		return models.WalletSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	return finance.Summarize(profile.Balance, txs), nil
}

// ListTransactions returns the caller's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID int64, filter models.TransactionFilter) ([]models.WalletTransaction, error) {
	filter.UserID = userID
	filter.Limit = clampLimit(filter.Limit, 100, 500)
	return s.store.ListTransactions(ctx, filter)
}

// RecalculateBalance rewrites a profile's balance from its completed ledger rows.
func (s *Service) RecalculateBalance(ctx context.Context, userID int64) (models.BalanceRecalculation, error) {
	var (
		result models.BalanceRecalculation
		o      outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.GetProfileForUpdate(ctx, userID); err != nil {
			return err
		}
		previous, balance, err := s.recalculate(ctx, repo, userID)
		if err != nil {
			return err
		}
		result = models.BalanceRecalculation{
			UserID:          userID,
			PreviousBalance: previous,
			Balance:         balance,
			Changed:         !previous.Equal(balance),
		}
		if result.Changed {
			o.event("profile", "balance_updated", userID, userID, map[string]any{"balance": balance})
		}
		return nil
	})
	if err != nil {
		return models.BalanceRecalculation{}, err
	}
	if result.Changed {
		s.logger.Warn("balance drift corrected", zap.Int64("user_id", userID),
			zap.String("previous", money(result.PreviousBalance)), zap.String("balance", money(result.Balance)))
	}
	s.flush(ctx, &o)
	return result, nil
}

// AdjustBalance books a signed manual correction. Debits may not exceed the
// funds not already reserved by pending withdrawals.
func (s *Service) AdjustBalance(ctx context.Context, adminID, userID int64, req dto.AdjustBalanceRequest) (models.WalletTransaction, error) {
	if err := validate(req); err != nil {
		return models.WalletTransaction{}, err
	}
	amount := req.Amount.Round(2)
	if amount.IsZero() {
		return models.WalletTransaction{}, invalid("amount must not be zero")
	}

	var (
		tx models.WalletTransaction
		o  outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.GetProfileForUpdate(ctx, userID); err != nil {
			return err
		}
		if amount.IsNegative() {
			_, free, err := available(ctx, repo, userID)
			if err != nil {
				return err
			}
			if amount.Abs().GreaterThan(free) {
				return fmt.Errorf("%w: available balance is %s", ErrInsufficientFunds, money(free))
			}
		}

		var err error
		tx, err = repo.CreateTransaction(ctx, models.WalletTransaction{
			UserID:      userID,
			Type:        models.TxAdjustment,
			Amount:      amount,
			Status:      models.TxCompleted,
			Reference:   newReference("ADJ"),
			Description: req.Note,
		})
		if err != nil {
			return fmt.Errorf("create adjustment: %w", err)
		}
		_, balance, err := s.recalculate(ctx, repo, userID)
		if err != nil {
			return err
		}
		o.event("wallet_transaction", "created", tx.ID, userID, tx)
		o.event("profile", "balance_updated", userID, userID, map[string]any{"balance": balance})

		kind, verb := models.NotifyInfo, "credited to"
		if amount.IsNegative() {
			kind, verb = models.NotifyWarning, "debited from"
		}
		if err := s.notify(ctx, repo, &o, userID, kind, "Balance adjusted",
			fmt.Sprintf("%s was %s your wallet: %s", money(amount.Abs()), verb, req.Note)); err != nil {
			return err
		}
		return s.audit(ctx, repo, adminID, "wallet.adjust", "profile", userID,
			fmt.Sprintf("Adjusted balance by %s: %s", money(amount), req.Note))
	})
	if err != nil {
		return models.WalletTransaction{}, err
	}
	s.flush(ctx, &o)
	s.logger.Info("balance adjusted", zap.Int64("user_id", userID), zap.Int64("admin_id", adminID), zap.String("amount", money(amount)))
	return tx, nil
}
