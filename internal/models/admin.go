package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminLog is an audit row describing an administrator action.
type AdminLog struct {
	ID          int64     `json:"id"`
	AdminID     int64     `json:"admin_id"`
	Action      string    `json:"action"`
	TargetType  string    `json:"target_type"`
	TargetID    *int64    `json:"target_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CountAmount pairs a row count with its summed amount.
type CountAmount struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// NewUserCounts counts sign-ups over trailing windows.
type NewUserCounts struct {
	Day   int `json:"day"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// DashboardStats aggregates platform totals for the admin dashboard.
type DashboardStats struct {
	TotalUsers         int             `json:"total_users"`
	ActiveInvestors    int             `json:"active_investors"`
	NewUsers           NewUserCounts   `json:"new_users"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalYieldPaid     decimal.Decimal `json:"total_yield_paid"`
	TotalDeposits      decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals   decimal.Decimal `json:"total_withdrawals"`
	PendingWithdrawals CountAmount     `json:"pending_withdrawals"`
	PendingTransfers   CountAmount     `json:"pending_transfers"`
	OpenProjects       int             `json:"open_projects"`
	FundedProjects     int             `json:"funded_projects"`
}

// UserDetail is the admin view of a single investor.
type UserDetail struct {
	Profile      Profile             `json:"profile"`
	Wallet       WalletSummary       `json:"wallet"`
	Investments  []Investment        `json:"investments"`
	Transactions []WalletTransaction `json:"transactions"`
	Withdrawals  []WithdrawalRequest `json:"withdrawals"`
}
