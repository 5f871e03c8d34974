package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// RequestWithdrawal reserves wallet funds for payout. The pending withdrawal
// row lowers the available balance until an admin approves or rejects it.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int64, req dto.WithdrawalRequest) (models.WithdrawalRequest, error) {
	if err := validate(req); err != nil {
		return models.WithdrawalRequest{}, err
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() || amount.LessThan(s.settings.MinWithdrawal) {
		return models.WithdrawalRequest{}, invalid("minimum withdrawal is %s", money(s.settings.MinWithdrawal))
	}

	var (
		w models.WithdrawalRequest
		o outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		profile, err := lockActiveProfile(ctx, repo, userID)
		if err != nil {
			return err
		}
		bankName := firstNonEmpty(req.BankName, profile.BankName)
		accountName := firstNonEmpty(req.AccountName, profile.BankAccountName)
		accountNumber := firstNonEmpty(req.AccountNumber, profile.BankAccountNumber)
		if bankName == "" || accountName == "" || accountNumber == "" {
			return invalid("bank_name, account_name and account_number are required")
		}

		_, free, err := available(ctx, repo, userID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(free) {
			return fmt.Errorf("%w: available balance is %s", ErrInsufficientFunds, money(free))
		}

		tx, err := repo.CreateTransaction(ctx, models.WalletTransaction{
			UserID:      userID,
			Type:        models.TxWithdrawal,
			Amount:      amount,
			Status:      models.TxPending,
			Reference:   newReference("WDR"),
			Description: "Withdrawal to " + bankName,
		})
		if err != nil {
			return fmt.Errorf("create withdrawal transaction: %w", err)
		}
		w, err = repo.CreateWithdrawal(ctx, models.WithdrawalRequest{
			UserID:        userID,
			Amount:        amount,
			BankName:      bankName,
			AccountName:   accountName,
			AccountNumber: accountNumber,
			Status:        models.WithdrawalPending,
			TransactionID: tx.ID,
		})
		if err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		o.event("withdrawal", "created", w.ID, userID, w)
		return s.notify(ctx, repo, &o, userID, models.NotifyInfo, "Withdrawal requested",
			fmt.Sprintf("Your withdrawal of %s is awaiting approval.", money(amount)))
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	s.flush(ctx, &o)
	s.logger.Info("withdrawal requested", zap.Int64("user_id", userID), zap.Int64("withdrawal_id", w.ID), zap.String("amount", money(amount)))
	return w, nil
}

// ListWithdrawals lists withdrawal requests matching filter.
func (s *Service) ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	return s.store.ListWithdrawals(ctx, filter)
}

// CancelWithdrawal lets the owner withdraw a request an admin has not processed yet.
func (s *Service) CancelWithdrawal(ctx context.Context, userID, id int64) (models.WithdrawalRequest, error) {
	var (
		w models.WithdrawalRequest
		o outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.GetProfileForUpdate(ctx, userID); err != nil {
			return err
		}
		var err error
		w, err = repo.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		if w.UserID != userID {
			return storage.ErrNotFound
		}
		if w.Status != models.WithdrawalPending {
			return fmt.Errorf("%w: withdrawal is already %s", ErrInvalidState, w.Status)
		}
		if err := repo.UpdateTransactionStatus(ctx, w.TransactionID, models.TxCancelled); err != nil {
			return fmt.Errorf("update withdrawal transaction: %w", err)
		}
		now := s.clock()
		w.Status = models.WithdrawalCancelled
		w.ProcessedAt = &now
		if w, err = repo.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}
		o.event("withdrawal", "cancelled", w.ID, userID, w)
		return nil
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	s.flush(ctx, &o)
	return w, nil
}

// ApproveWithdrawal completes the payout. The balance is checked again because
// admin adjustments may have lowered it since the request was made.
func (s *Service) ApproveWithdrawal(ctx context.Context, adminID, id int64) (models.WithdrawalRequest, error) {
	return s.reviewWithdrawal(ctx, adminID, id, true, "")
}

// RejectWithdrawal fails a pending withdrawal and releases the reserved funds.
func (s *Service) RejectWithdrawal(ctx context.Context, adminID, id int64, req dto.ReviewRequest) (models.WithdrawalRequest, error) {
	if err := validate(req); err != nil {
		return models.WithdrawalRequest{}, err
	}
	return s.reviewWithdrawal(ctx, adminID, id, false, strings.TrimSpace(req.Note))
}

func (s *Service) reviewWithdrawal(ctx context.Context, adminID, id int64, approve bool, note string) (models.WithdrawalRequest, error) {
	var (
		w models.WithdrawalRequest
		o outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		pending, err := repo.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		owner, err := repo.GetProfileForUpdate(ctx, pending.UserID)
		if err != nil {
			return err
		}
		w, err = repo.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		if w.Status != models.WithdrawalPending {
			return fmt.Errorf("%w: withdrawal is already %s", ErrInvalidState, w.Status)
		}

		txStatus, action := models.TxFailed, "rejected"
		w.Status = models.WithdrawalRejected
		if approve {
			balance, _, err := available(ctx, repo, w.UserID)
			if err != nil {
				return err
			}
			if w.Amount.GreaterThan(balance) {
				return fmt.Errorf("%w: balance %s does not cover %s", ErrInsufficientFunds, money(balance), money(w.Amount))
			}
			txStatus, action = models.TxCompleted, "approved"
			w.Status = models.WithdrawalApproved
		}
		if err := repo.UpdateTransactionStatus(ctx, w.TransactionID, txStatus); err != nil {
			return fmt.Errorf("update withdrawal transaction: %w", err)
		}
		now := s.clock()
		w.AdminNote = note
		w.ProcessedBy = &adminID
		w.ProcessedAt = &now
		if w, err = repo.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}
		_, balance, err := s.recalculate(ctx, repo, w.UserID)
		if err != nil {
			return err
		}
		o.event("withdrawal", action, w.ID, w.UserID, w)

		data := map[string]any{
			"name":      owner.FullName,
			"amount":    money(w.Amount),
			"bank_name": w.BankName,
			"note":      note,
		}
		if approve {
			o.event("profile", "balance_updated", w.UserID, w.UserID, map[string]any{"balance": balance})
			o.email(owner.Email, mail.TemplateWithdrawalApproved, data)
			err = s.notify(ctx, repo, &o, w.UserID, models.NotifySuccess, "Withdrawal approved",
				fmt.Sprintf("%s is on its way to %s.", money(w.Amount), w.BankName))
		} else {
			o.email(owner.Email, mail.TemplateWithdrawalRejected, data)
			err = s.notify(ctx, repo, &o, w.UserID, models.NotifyError, "Withdrawal rejected",
				rejectionMessage(fmt.Sprintf("Your withdrawal of %s was rejected.", money(w.Amount)), note))
		}
		if err != nil {
			return err
		}
		return s.audit(ctx, repo, adminID, "withdrawal."+action, "withdrawal", w.ID,
			fmt.Sprintf("Withdrawal %d of %s for user %d %s", w.ID, money(w.Amount), w.UserID, action))
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	s.flush(ctx, &o)
	s.logger.Info("withdrawal reviewed", zap.Int64("withdrawal_id", id), zap.Int64("admin_id", adminID), zap.String("status", w.Status))
	return w, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
