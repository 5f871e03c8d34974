package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TxDeposit            = "deposit"
	TxWithdrawal         = "withdrawal"
	TxInvestment         = "investment"
	TxYield              = "yield"
	TxPrincipalReturn    = "principal_return"
	TxReferralCommission = "referral_commission"
	TxAdjustment         = "adjustment"
)

const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
	TxCancelled = "cancelled"
)

// WalletTransaction is one ledger row. Amount is a magnitude whose sign comes
// from Type, except for adjustments which carry their own sign.
type WalletTransaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	RelatedID   *int64          `json:"related_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	UserID int64
	Type   string
	Status string
	Limit  int
}

// WalletSummary is the investor-facing view of a wallet.
type WalletSummary struct {
	Balance            decimal.Decimal `json:"balance"`
	Available          decimal.Decimal `json:"available"`
	PendingWithdrawals decimal.Decimal `json:"pending_withdrawals"`
	PendingDeposits    decimal.Decimal `json:"pending_deposits"`
	TotalDeposited     decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn     decimal.Decimal `json:"total_withdrawn"`
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalYield         decimal.Decimal `json:"total_yield"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
}

// BalanceRecalculation is returned by the recalculate-balance function.
type BalanceRecalculation struct {
	UserID          int64           `json:"user_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Balance         decimal.Decimal `json:"balance"`
	Changed         bool            `json:"changed"`
}
