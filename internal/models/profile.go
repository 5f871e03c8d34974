package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile captures an investor or administrator account together with its wallet balance.
type Profile struct {
	ID                int64           `json:"id"`
	Email             string          `json:"email"`
	FullName          string          `json:"full_name"`
	Phone             string          `json:"phone"`
	Role              string          `json:"role"`
	Status            string          `json:"status"`
	Balance           decimal.Decimal `json:"balance"`
	ReferralCode      string          `json:"referral_code"`
	ReferredBy        *int64          `json:"referred_by,omitempty"`
	BankName          string          `json:"bank_name,omitempty"`
	BankAccountName   string          `json:"bank_account_name,omitempty"`
	BankAccountNumber string          `json:"bank_account_number,omitempty"`
	PasswordHash      string          `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsBlocked reports whether the profile has been blocked by an administrator.
func (p Profile) IsBlocked() bool {
	return p.Status == StatusBlocked
}

// ProfileFilter narrows admin user listings.
type ProfileFilter struct {
	Search string
	Role   string
	Status string
	Limit  int
	Offset int
}
