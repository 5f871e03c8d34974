package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
	InvestmentCancelled = "cancelled"
)

// Investment records an investor's stake in a project and the yield accrued on it.
type Investment struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	ProjectID          int64           `json:"project_id"`
	ProjectTitle       string          `json:"project_title"`
	Amount             decimal.Decimal `json:"amount"`
	AnnualYieldPercent decimal.Decimal `json:"annual_yield_percent"`
	DurationMonths     int             `json:"duration_months"`
	ExpectedReturn     decimal.Decimal `json:"expected_return"`
	AccruedYield       decimal.Decimal `json:"accrued_yield"`
	Status             string          `json:"status"`
	StartedAt          time.Time       `json:"started_at"`
	MaturesAt          time.Time       `json:"matures_at"`
	LastAccruedAt      time.Time       `json:"last_accrued_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// InvestmentFilter narrows investment listings.
type InvestmentFilter struct {
	UserID    int64
	ProjectID int64
	Status    string
}
