package dto

import "github.com/shopspring/decimal"

// InvestRequest stakes an amount in a project.
type InvestRequest struct {
	ProjectID int64           `json:"project_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
}

// BankTransferRequest reports a manual bank deposit.
type BankTransferRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	BankName   string          `json:"bank_name" validate:"required,max=120"`
	SenderName string          `json:"sender_name" validate:"required,max=120"`
	Reference  string          `json:"reference" validate:"omitempty,max=64"`
}

// WithdrawalRequest asks for a payout; empty bank fields fall back to the profile.
type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name" validate:"omitempty,max=120"`
	AccountName   string          `json:"account_name" validate:"omitempty,max=120"`
	AccountNumber string          `json:"account_number" validate:"omitempty,max=64"`
}

// ReviewRequest carries the optional note an admin attaches when processing a request.
type ReviewRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}
