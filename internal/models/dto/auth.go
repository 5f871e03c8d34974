package dto

import "github.com/hongminglow/invest-be/internal/models"

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	FullName     string `json:"full_name" validate:"required,max=120"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=32"`
}

// LoginRequest is the email and password login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the caller's profile.
type LoginResponse struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"profile"`
}

// UpdateProfileRequest is a partial profile update; nil fields are left alone.
type UpdateProfileRequest struct {
	FullName          *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	Phone             *string `json:"phone" validate:"omitempty,max=32"`
	BankName          *string `json:"bank_name" validate:"omitempty,max=120"`
	BankAccountName   *string `json:"bank_account_name" validate:"omitempty,max=120"`
	BankAccountNumber *string `json:"bank_account_number" validate:"omitempty,max=64"`
}
