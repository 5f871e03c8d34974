package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProjectDraft  = "draft"
	ProjectOpen   = "open"
	ProjectFunded = "funded"
	ProjectClosed = "closed"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Project is an investment opportunity investors can fund.
type Project struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	ImageURL           string          `json:"image_url,omitempty"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	RaisedAmount       decimal.Decimal `json:"raised_amount"`
	MinInvestment      decimal.Decimal `json:"min_investment"`
	MaxInvestment      decimal.Decimal `json:"max_investment"`
	AnnualYieldPercent decimal.Decimal `json:"annual_yield_percent"`
	DurationMonths     int             `json:"duration_months"`
	RiskLevel          string          `json:"risk_level"`
	Status             string          `json:"status"`
	StartsAt           *time.Time      `json:"starts_at,omitempty"`
	EndsAt             *time.Time      `json:"ends_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Remaining returns how much can still be raised before the target is met.
func (p Project) Remaining() decimal.Decimal {
	left := p.TargetAmount.Sub(p.RaisedAmount)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// AcceptsInvestmentsAt reports whether the project is open and inside its funding window.
func (p Project) AcceptsInvestmentsAt(now time.Time) bool {
	if p.Status != ProjectOpen {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Statuses []string
	Category string
	Search   string
}

// ValidProjectStatus reports whether status is a known project status.
func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectDraft, ProjectOpen, ProjectFunded, ProjectClosed:
		return true
	}
	return false
}
