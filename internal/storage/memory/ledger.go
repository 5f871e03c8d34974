package memory

import (
	"context"
	"strings"
	"time"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/storage"
)

func (r *repo) CreateTransaction(ctx context.Context, tx models.WalletTransaction) (models.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	tx.ID = st.nextID()
	tx.Amount = tx.Amount.Round(2)
	tx.CreatedAt = r.now()
	tx.UpdatedAt = tx.CreatedAt
	st.transactions[tx.ID] = tx
	return tx, nil
}

func (r *repo) GetTransaction(ctx context.Context, id int64) (models.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.state().transactions[id]
	if !ok {
		return models.WalletTransaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (r *repo) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.WalletTransaction{}
	for _, tx := range r.state().transactions {
		if filter.UserID > 0 && tx.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, tx)
	}
	out = newestFirst(out, func(t models.WalletTransaction) (time.Time, int64) { return t.CreatedAt, t.ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *repo) UpdateTransactionStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	tx, ok := st.transactions[id]
	if !ok {
		return storage.ErrNotFound
	}
	tx.Status = status
	tx.UpdatedAt = r.now()
	st.transactions[id] = tx
	return nil
}

// Withdrawals

func (r *repo) CreateWithdrawal(ctx context.Context, w models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	w.ID = st.nextID()
	w.CreatedAt = r.now()
	st.withdrawals[w.ID] = w
	return w, nil
}

func (r *repo) GetWithdrawal(ctx context.Context, id int64) (models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.state().withdrawals[id]
	if !ok {
		return models.WithdrawalRequest{}, storage.ErrNotFound
	}
	return w, nil
}

func (r *repo) ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.WithdrawalRequest{}
	for _, w := range r.state().withdrawals {
		if filter.UserID > 0 && w.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		out = append(out, w)
	}
	return newestFirst(out, func(w models.WithdrawalRequest) (time.Time, int64) { return w.CreatedAt, w.ID }), nil
}

func (r *repo) UpdateWithdrawal(ctx context.Context, w models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	existing, ok := st.withdrawals[w.ID]
	if !ok {
		return models.WithdrawalRequest{}, storage.ErrNotFound
	}
	existing.Status = w.Status
	existing.AdminNote = w.AdminNote
	existing.ProcessedBy = w.ProcessedBy
	existing.ProcessedAt = w.ProcessedAt
	st.withdrawals[w.ID] = existing
	return existing, nil
}

// Bank transfers

func (r *repo) CreateBankTransfer(ctx context.Context, t models.BankTransfer) (models.BankTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	for _, existing := range st.transfers {
		if strings.EqualFold(existing.Reference, t.Reference) {
			return models.BankTransfer{}, storage.ErrAlreadyExists
		}
	}
	t.ID = st.nextID()
	t.CreatedAt = r.now()
	st.transfers[t.ID] = t
	return t, nil
}

func (r *repo) GetBankTransfer(ctx context.Context, id int64) (models.BankTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.state().transfers[id]
	if !ok {
		return models.BankTransfer{}, storage.ErrNotFound
	}
	return t, nil
}

func (r *repo) ListBankTransfers(ctx context.Context, filter models.TransferFilter) ([]models.BankTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.BankTransfer{}
	for _, t := range r.state().transfers {
		if filter.UserID > 0 && t.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return newestFirst(out, func(t models.BankTransfer) (time.Time, int64) { return t.CreatedAt, t.ID }), nil
}

func (r *repo) UpdateBankTransfer(ctx context.Context, t models.BankTransfer) (models.BankTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	existing, ok := st.transfers[t.ID]
	if !ok {
		return models.BankTransfer{}, storage.ErrNotFound
	}
	existing.Status = t.Status
	existing.AdminNote = t.AdminNote
	existing.ConfirmedBy = t.ConfirmedBy
	existing.ConfirmedAt = t.ConfirmedAt
	st.transfers[t.ID] = existing
	return existing, nil
}
