package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransferPending   = "pending"
	TransferConfirmed = "confirmed"
	TransferRejected  = "rejected"
)

// BankTransfer is a manual bank deposit an investor declares and an admin confirms.
type BankTransfer struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	BankName      string          `json:"bank_name"`
	SenderName    string          `json:"sender_name"`
	Status        string          `json:"status"`
	AdminNote     string          `json:"admin_note,omitempty"`
	TransactionID int64           `json:"transaction_id"`
	ConfirmedBy   *int64          `json:"confirmed_by,omitempty"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferFilter narrows bank transfer listings.
type TransferFilter struct {
	UserID int64
	Status string
}
