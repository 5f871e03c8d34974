package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalPending   = "pending"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
	WithdrawalCancelled = "cancelled"
)

// WithdrawalRequest asks an administrator to pay wallet funds out to a bank account.
type WithdrawalRequest struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name"`
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	Status        string          `json:"status"`
	AdminNote     string          `json:"admin_note,omitempty"`
	TransactionID int64           `json:"transaction_id"`
	ProcessedBy   *int64          `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// WithdrawalFilter narrows withdrawal listings.
type WithdrawalFilter struct {
	UserID int64
	Status string
}
