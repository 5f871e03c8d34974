package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// SubmitBankTransfer records a bank deposit the investor claims to have made.
// It stays pending until an admin matches it against the bank statement.
func (s *Service) SubmitBankTransfer(ctx context.Context, userID int64, req dto.BankTransferRequest) (models.BankTransfer, error) {
	req.BankName = strings.TrimSpace(req.BankName)
	req.SenderName = strings.TrimSpace(req.SenderName)
	req.Reference = strings.ToUpper(strings.TrimSpace(req.Reference))
	if err := validate(req); err != nil {
		return models.BankTransfer{}, err
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() || amount.LessThan(s.settings.MinDeposit) {
		return models.BankTransfer{}, invalid("minimum deposit is %s", money(s.settings.MinDeposit))
	}
	reference := req.Reference
	if reference == "" {
		reference = newReference("DEP")
	}

	var (
		transfer models.BankTransfer
		o        outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if _, err := lockActiveProfile(ctx, repo, userID); err != nil {
			return err
		}
		tx, err := repo.CreateTransaction(ctx, models.WalletTransaction{
			UserID:      userID,
			Type:        models.TxDeposit,
			Amount:      amount,
			Status:      models.TxPending,
			Reference:   reference,
			Description: "Bank transfer from " + req.SenderName,
		})
		if err != nil {
			return fmt.Errorf("create deposit transaction: %w", err)
		}
		transfer, err = repo.CreateBankTransfer(ctx, models.BankTransfer{
			UserID:        userID,
			Amount:        amount,
			Reference:     reference,
			BankName:      req.BankName,
			SenderName:    req.SenderName,
			Status:        models.TransferPending,
			TransactionID: tx.ID,
		})
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("%w: reference %s was already submitted", storage.ErrAlreadyExists, reference)
		}
		if err != nil {
			return err
		}
		o.event("bank_transfer", "created", transfer.ID, userID, transfer)
		return s.notify(ctx, repo, &o, userID, models.NotifyInfo, "Deposit submitted",
			fmt.Sprintf("Your transfer %s of %s is awaiting confirmation.", reference, money(amount)))
	})
	if err != nil {
		return models.BankTransfer{}, err
	}
	s.flush(ctx, &o)
	return transfer, nil
}

// ListBankTransfers lists deposits, scoped to one user unless filter.UserID is zero.
func (s *Service) ListBankTransfers(ctx context.Context, filter models.TransferFilter) ([]models.BankTransfer, error) {
	return s.store.ListBankTransfers(ctx, filter)
}

// ConfirmBankTransfer credits a pending deposit to the investor's wallet.
func (s *Service) ConfirmBankTransfer(ctx context.Context, adminID, id int64) (models.BankTransfer, error) {
	return s.reviewBankTransfer(ctx, adminID, id, true, "")
}

// RejectBankTransfer marks a pending deposit as failed; the wallet is untouched.
func (s *Service) RejectBankTransfer(ctx context.Context, adminID, id int64, req dto.ReviewRequest) (models.BankTransfer, error) {
	if err := validate(req); err != nil {
		return models.BankTransfer{}, err
	}
	return s.reviewBankTransfer(ctx, adminID, id, false, strings.TrimSpace(req.Note))
}

func (s *Service) reviewBankTransfer(ctx context.Context, adminID, id int64, confirm bool, note string) (models.BankTransfer, error) {
	var (
		transfer models.BankTransfer
		o        outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		pending, err := repo.GetBankTransfer(ctx, id)
		if err != nil {
			return err
		}
		owner, err := repo.GetProfileForUpdate(ctx, pending.UserID)
		if err != nil {
			return err
		}
		// Re-read under the profile lock so two admins cannot both act on it.
		transfer, err = repo.GetBankTransfer(ctx, id)
		if err != nil {
			return err
		}
		if transfer.Status != models.TransferPending {
			return fmt.Errorf("%w: transfer is already %s", ErrInvalidState, transfer.Status)
		}

		now := s.clock()
		txStatus, action := models.TxFailed, "rejected"
		transfer.Status = models.TransferRejected
		if confirm {
			txStatus, action = models.TxCompleted, "confirmed"
			transfer.Status = models.TransferConfirmed
		}
		if err := repo.UpdateTransactionStatus(ctx, transfer.TransactionID, txStatus); err != nil {
			return fmt.Errorf("update deposit transaction: %w", err)
		}
		transfer.AdminNote = note
		transfer.ConfirmedBy = &adminID
		transfer.ConfirmedAt = &now
		if transfer, err = repo.UpdateBankTransfer(ctx, transfer); err != nil {
			return err
		}
		_, balance, err := s.recalculate(ctx, repo, transfer.UserID)
		if err != nil {
			return err
		}
		o.event("bank_transfer", action, transfer.ID, transfer.UserID, transfer)

		data := map[string]any{
			"name":      owner.FullName,
			"reference": transfer.Reference,
			"amount":    money(transfer.Amount),
			"balance":   money(balance),
			"note":      note,
		}
		if confirm {
			o.event("profile", "balance_updated", transfer.UserID, transfer.UserID, map[string]any{"balance": balance})
			o.email(owner.Email, mail.TemplateDepositConfirmed, data)
			err = s.notify(ctx, repo, &o, transfer.UserID, models.NotifySuccess, "Deposit confirmed",
				fmt.Sprintf("%s from transfer %s was added to your wallet.", money(transfer.Amount), transfer.Reference))
		} else {
			o.email(owner.Email, mail.TemplateDepositRejected, data)
			err = s.notify(ctx, repo, &o, transfer.UserID, models.NotifyError, "Deposit rejected",
				rejectionMessage(fmt.Sprintf("Transfer %s could not be confirmed.", transfer.Reference), note))
		}
		if err != nil {
			return err
		}
		return s.audit(ctx, repo, adminID, "bank_transfer."+action, "bank_transfer", transfer.ID,
			fmt.Sprintf("%s transfer %s of %s for user %d", strings.ToUpper(action[:1])+action[1:], transfer.Reference, money(transfer.Amount), transfer.UserID))
	})
	if err != nil {
		return models.BankTransfer{}, err
	}
	s.flush(ctx, &o)
	s.logger.Info("bank transfer reviewed", zap.Int64("transfer_id", id), zap.Int64("admin_id", adminID), zap.String("status", transfer.Status))
	return transfer, nil
}

func rejectionMessage(base, note string) string {
	if note == "" {
		return base
	}
	return base + " Reason: " + note
}
