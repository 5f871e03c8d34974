package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/invest-be/internal/models"
)

const transactionColumns = `id, user_id, type, amount, status, reference, description, related_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (models.WalletTransaction, error) {
	var tx models.WalletTransaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Status, &tx.Reference, &tx.Description,
		&tx.RelatedID, &tx.CreatedAt, &tx.UpdatedAt)
	return tx, err
}

func (r *repo) CreateTransaction(ctx context.Context, tx models.WalletTransaction) (models.WalletTransaction, error) {
	query := `
		INSERT INTO wallet_transactions (user_id, type, amount, status, reference, description, related_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns
	created, err := scanTransaction(r.q.QueryRow(ctx, query, tx.UserID, tx.Type, tx.Amount, tx.Status,
		tx.Reference, tx.Description, tx.RelatedID))
	if err != nil {
		return models.WalletTransaction{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) GetTransaction(ctx context.Context, id int64) (models.WalletTransaction, error) {
	tx, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions WHERE id = $1`, id))
	return tx, mapReadErr(err)
}

func (r *repo) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.WalletTransaction, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTransaction)
}

func (r *repo) UpdateTransactionStatus(ctx context.Context, id int64, status string) error {
	return expectOne(r.q.Exec(ctx, `UPDATE wallet_transactions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status))
}

const withdrawalColumns = `id, user_id, amount, bank_name, account_name, account_number, status, admin_note,
	transaction_id, processed_by, processed_at, created_at`

func scanWithdrawal(row pgx.Row) (models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.BankName, &w.AccountName, &w.AccountNumber, &w.Status,
		&w.AdminNote, &w.TransactionID, &w.ProcessedBy, &w.ProcessedAt, &w.CreatedAt)
	return w, err
}

func (r *repo) CreateWithdrawal(ctx context.Context, w models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	query := `
		INSERT INTO withdrawal_requests (user_id, amount, bank_name, account_name, account_number, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + withdrawalColumns
	created, err := scanWithdrawal(r.q.QueryRow(ctx, query, w.UserID, w.Amount, w.BankName, w.AccountName,
		w.AccountNumber, w.Status, w.TransactionID))
	if err != nil {
		return models.WithdrawalRequest{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) GetWithdrawal(ctx context.Context, id int64) (models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(r.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
	return w, mapReadErr(err)
}

func (r *repo) ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWithdrawal)
}

func (r *repo) UpdateWithdrawal(ctx context.Context, w models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	query := `
		UPDATE withdrawal_requests SET status = $2, admin_note = $3, processed_by = $4, processed_at = $5
		WHERE id = $1
		RETURNING ` + withdrawalColumns
	updated, err := scanWithdrawal(r.q.QueryRow(ctx, query, w.ID, w.Status, w.AdminNote, w.ProcessedBy, w.ProcessedAt))
	return updated, mapReadErr(err)
}

const transferColumns = `id, user_id, amount, reference, bank_name, sender_name, status, admin_note,
	transaction_id, confirmed_by, confirmed_at, created_at`

func scanTransfer(row pgx.Row) (models.BankTransfer, error) {
	var t models.BankTransfer
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Reference, &t.BankName, &t.SenderName, &t.Status,
		&t.AdminNote, &t.TransactionID, &t.ConfirmedBy, &t.ConfirmedAt, &t.CreatedAt)
	return t, err
}

func (r *repo) CreateBankTransfer(ctx context.Context, t models.BankTransfer) (models.BankTransfer, error) {
	query := `
		INSERT INTO bank_transfers (user_id, amount, reference, bank_name, sender_name, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transferColumns
	created, err := scanTransfer(r.q.QueryRow(ctx, query, t.UserID, t.Amount, t.Reference, t.BankName,
		t.SenderName, t.Status, t.TransactionID))
	if err != nil {
		return models.BankTransfer{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) GetBankTransfer(ctx context.Context, id int64) (models.BankTransfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM bank_transfers WHERE id = $1`, id))
	return t, mapReadErr(err)
}

func (r *repo) ListBankTransfers(ctx context.Context, filter models.TransferFilter) ([]models.BankTransfer, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + transferColumns + ` FROM bank_transfers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTransfer)
}

func (r *repo) UpdateBankTransfer(ctx context.Context, t models.BankTransfer) (models.BankTransfer, error) {
	query := `
		UPDATE bank_transfers SET status = $2, admin_note = $3, confirmed_by = $4, confirmed_at = $5
		WHERE id = $1
		RETURNING ` + transferColumns
	updated, err := scanTransfer(r.q.QueryRow(ctx, query, t.ID, t.Status, t.AdminNote, t.ConfirmedBy, t.ConfirmedAt))
	return updated, mapReadErr(err)
}
