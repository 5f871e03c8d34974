package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// Register creates an investor profile, linking it to a referrer when a valid
// referral code is supplied.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (models.Profile, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.ReferralCode = strings.TrimSpace(req.ReferralCode)
	if err := validate(req); err != nil {
		return models.Profile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	role := models.RoleInvestor
	if s.settings.isAdminEmail(req.Email) {
		role = models.RoleAdmin
	}

	var (
		created models.Profile
		o       outbox
	)
	err = s.store.WithTx(ctx, func(repo storage.Repository) error {
		if _, err := repo.FindProfileByEmail(ctx, req.Email); err == nil {
			return fmt.Errorf("%w: email already registered", storage.ErrAlreadyExists)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		var referrer *models.Profile
		if req.ReferralCode != "" {
			found, err := repo.FindProfileByReferralCode(ctx, req.ReferralCode)
			if errors.Is(err, storage.ErrNotFound) {
				return invalid("referral code %q does not exist", req.ReferralCode)
			}
			if err != nil {
				return err
			}
			referrer = &found
		}

		profile := models.Profile{
			Email:        req.Email,
			FullName:     req.FullName,
			Phone:        req.Phone,
			Role:         role,
			Status:       models.StatusActive,
			Balance:      decimal.Zero,
			ReferralCode: newReferralCode(),
			PasswordHash: string(hash),
		}
		if referrer != nil {
			profile.ReferredBy = &referrer.ID
		}
		var err error
		if created, err = repo.CreateProfile(ctx, profile); err != nil {
			return err
		}
		o.event("profile", "created", created.ID, created.ID, created)

		if referrer != nil {
			ref, err := repo.CreateReferral(ctx, models.Referral{
				ReferrerID:       referrer.ID,
				ReferredID:       created.ID,
				CommissionEarned: decimal.Zero,
			})
			if err != nil {
				return fmt.Errorf("create referral: %w", err)
			}
			o.event("referral", "created", ref.ID, referrer.ID, ref)
			if err := s.notify(ctx, repo, &o, referrer.ID, models.NotifySuccess, "New referral",
				fmt.Sprintf("%s joined with your referral code.", created.FullName)); err != nil {
				return err
			}
		}

		return s.notify(ctx, repo, &o, created.ID, models.NotifyInfo, "Welcome",
			"Your account is ready. Fund your wallet with a bank transfer to start investing.")
	})
	if err != nil {
		return models.Profile{}, err
	}

	o.email(created.Email, mail.TemplateWelcome, map[string]any{
		"name":          created.FullName,
		"referral_code": created.ReferralCode,
	})
	s.flush(ctx, &o)
	s.logger.Info("profile registered", zap.Int64("user_id", created.ID), zap.String("role", created.Role))
	return created, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := validate(req); err != nil {
		return dto.LoginResponse{}, err
	}
	profile, err := s.store.FindProfileByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, storage.ErrNotFound) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("find profile: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if profile.IsBlocked() {
		s.logger.Warn("blocked profile attempted login", zap.Int64("user_id", profile.ID))
		return dto.LoginResponse{}, ErrAccountBlocked
	}
	token, err := s.tokens.Generate(profile)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("generate token: %w", err)
	}
	return dto.LoginResponse{Token: token, Profile: profile}, nil
}

// ActiveProfile loads the caller's profile and rejects blocked accounts.
func (s *Service) ActiveProfile(ctx context.Context, userID int64) (models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	if profile.IsBlocked() {
		return models.Profile{}, ErrAccountBlocked
	}
	return profile, nil
}

// GetProfile loads a profile by id.
func (s *Service) GetProfile(ctx context.Context, userID int64) (models.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

// UpdateProfile applies the supplied fields to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req dto.UpdateProfileRequest) (models.Profile, error) {
	if err := validate(req); err != nil {
		return models.Profile{}, err
	}
	var (
		updated models.Profile
		o       outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		profile, err := repo.GetProfileForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if req.FullName != nil {
			name := strings.TrimSpace(*req.FullName)
			if name == "" {
				return invalid("full_name must not be blank")
			}
			profile.FullName = name
		}
		if req.Phone != nil {
			profile.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.BankName != nil {
			profile.BankName = strings.TrimSpace(*req.BankName)
		}
		if req.BankAccountName != nil {
			profile.BankAccountName = strings.TrimSpace(*req.BankAccountName)
		}
		if req.BankAccountNumber != nil {
			profile.BankAccountNumber = strings.TrimSpace(*req.BankAccountNumber)
		}
		updated, err = repo.UpdateProfile(ctx, profile)
		if err != nil {
			return err
		}
		o.event("profile", "updated", updated.ID, updated.ID, updated)
		return nil
	})
	if err != nil {
		return models.Profile{}, err
	}
	s.flush(ctx, &o)
	return updated, nil
}

// ReferralOverview returns the caller's code, who signed up with it and what it earned.
func (s *Service) ReferralOverview(ctx context.Context, userID int64) (models.ReferralOverview, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.ReferralOverview{}, err
	}
	refs, err := s.store.ListReferrals(ctx, userID)
	if err != nil {
		return models.ReferralOverview{}, fmt.Errorf("list referrals: %w", err)
	}
	total := decimal.Zero
	for _, ref := range refs {
		total = total.Add(ref.CommissionEarned)
	}
	return models.ReferralOverview{
		ReferralCode:    profile.ReferralCode,
		TotalReferred:   len(refs),
		TotalCommission: total,
		Referrals:       refs,
	}, nil
}

func newReferralCode() string {
	return strings.TrimPrefix(newReference("R"), "R-")[:8]
}
