package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral links a referred investor to the profile whose code they signed up with.
type Referral struct {
	ID               int64           `json:"id"`
	ReferrerID       int64           `json:"referrer_id"`
	ReferredID       int64           `json:"referred_id"`
	ReferredEmail    string          `json:"referred_email"`
	ReferredName     string          `json:"referred_name"`
	CommissionEarned decimal.Decimal `json:"commission_earned"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ReferralOverview is what a referrer sees about their referrals.
type ReferralOverview struct {
	ReferralCode    string          `json:"referral_code"`
	TotalReferred   int             `json:"total_referred"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	Referrals       []Referral      `json:"referrals"`
}
