package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectRequest creates or replaces a project.
type ProjectRequest struct {
	Title              string          `json:"title" validate:"required,max=200"`
	Description        string          `json:"description" validate:"max=5000"`
	Category           string          `json:"category" validate:"max=80"`
	ImageURL           string          `json:"image_url" validate:"omitempty,url"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	MinInvestment      decimal.Decimal `json:"min_investment"`
	MaxInvestment      decimal.Decimal `json:"max_investment"`
	AnnualYieldPercent decimal.Decimal `json:"annual_yield_percent"`
	DurationMonths     int             `json:"duration_months" validate:"required,gt=0,lte=600"`
	RiskLevel          string          `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	Status             string          `json:"status" validate:"omitempty,oneof=draft open funded closed"`
	StartsAt           *time.Time      `json:"starts_at"`
	EndsAt             *time.Time      `json:"ends_at"`
}

// AdminUpdateUserRequest changes a user's role, status or name.
type AdminUpdateUserRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=investor admin"`
	Status   *string `json:"status" validate:"omitempty,oneof=active blocked"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=120"`
}

// AdjustBalanceRequest is a signed manual wallet adjustment.
type AdjustBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" validate:"required,max=500"`
}

// BroadcastRequest sends an in-app notification to one user, or to everyone when UserID is nil.
type BroadcastRequest struct {
	UserID  *int64 `json:"user_id" validate:"omitempty,gt=0"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=info success warning error"`
}

// SendEmailRequest targets either a profile by id or a raw email address.
type SendEmailRequest struct {
	UserID   int64          `json:"user_id" validate:"omitempty,gt=0"`
	Email    string         `json:"email" validate:"omitempty,email"`
	Template string         `json:"template" validate:"required"`
	Subject  string         `json:"subject" validate:"omitempty,max=200"`
	Data     map[string]any `json:"data"`
}

// RecalculateBalanceRequest names the wallet to rebuild from its ledger.
type RecalculateBalanceRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}
