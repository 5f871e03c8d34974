package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/finance"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// ListUsers searches profiles by email or name, role and status.
func (s *Service) ListUsers(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	filter.Limit = clampLimit(filter.Limit, 50, 200)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListProfiles(ctx, filter)
}

// GetUserDetail gathers everything an admin needs to review one investor.
func (s *Service) GetUserDetail(ctx context.Context, userID int64) (models.UserDetail, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.UserDetail{}, err
	}
	txs, err := s.store.ListTransactions(ctx, models.TransactionFilter{UserID: userID})
	if err != nil {
		return models.UserDetail{}, fmt.Errorf("list transactions: %w", err)
	}
	investments, err := s.store.ListInvestments(ctx, models.InvestmentFilter{UserID: userID})
	if err != nil {
		return models.UserDetail{}, fmt.Errorf("list investments: %w", err)
	}
	withdrawals, err := s.store.ListWithdrawals(ctx, models.WithdrawalFilter{UserID: userID})
	if err != nil {
		return models.UserDetail{}, fmt.Errorf("list withdrawals: %w", err)
	}

	recent := txs
	if len(recent) > 50 {
		recent = recent[:50]
	}
	return models.UserDetail{
		Profile:      profile,
		Wallet:       finance.Summarize(profile.Balance, txs),
		Investments:  investments,
		Transactions: recent,
		Withdrawals:  withdrawals,
	}, nil
}

// UpdateUser changes a profile's role, status or name. Admins cannot block or
// demote themselves so the platform always keeps a working administrator.
func (s *Service) UpdateUser(ctx context.Context, adminID, userID int64, req dto.AdminUpdateUserRequest) (models.Profile, error) {
	if err := validate(req); err != nil {
		return models.Profile{}, err
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return models.Profile{}, invalid("full_name must not be blank")
	}
	if adminID == userID {
		if req.Role != nil && *req.Role != models.RoleAdmin {
			return models.Profile{}, fmt.Errorf("%w: you cannot remove your own admin role", ErrForbidden)
		}
		if req.Status != nil && *req.Status == models.StatusBlocked {
			return models.Profile{}, fmt.Errorf("%w: you cannot block yourself", ErrForbidden)
		}
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
		var changes []string
		if req.Role != nil && *req.Role != profile.Role {
			changes = append(changes, fmt.Sprintf("role %s -> %s", profile.Role, *req.Role))
			profile.Role = *req.Role
		}
		statusChanged := req.Status != nil && *req.Status != profile.Status
		if statusChanged {
			changes = append(changes, fmt.Sprintf("status %s -> %s", profile.Status, *req.Status))
			profile.Status = *req.Status
		}
		if req.FullName != nil && strings.TrimSpace(*req.FullName) != profile.FullName {
			profile.FullName = strings.TrimSpace(*req.FullName)
			changes = append(changes, "full name")
		}
		if len(changes) == 0 {
			updated = profile
			return nil
		}

		if updated, err = repo.UpdateProfile(ctx, profile); err != nil {
			return err
		}
		o.event("profile", "updated", updated.ID, updated.ID, updated)
		if statusChanged {
			title, msg, kind := "Account reactivated", "Your account is active again.", models.NotifySuccess
			if updated.IsBlocked() {
				title, msg, kind = "Account blocked", "Your account has been blocked. Contact support for details.", models.NotifyError
			}
			if err := s.notify(ctx, repo, &o, updated.ID, kind, title, msg); err != nil {
				return err
			}
		}
		return s.audit(ctx, repo, adminID, "user.update", "profile", updated.ID,
			fmt.Sprintf("Updated %s: %s", updated.Email, strings.Join(changes, ", ")))
	})
	if err != nil {
		return models.Profile{}, err
	}
	s.flush(ctx, &o)
	s.logger.Info("profile updated by admin", zap.Int64("user_id", userID), zap.Int64("admin_id", adminID))
	return updated, nil
}

// ListAdminLogs returns the most recent audit entries.
func (s *Service) ListAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	return s.store.ListAdminLogs(ctx, clampLimit(limit, 100, 500))
}

// DashboardStats aggregates platform totals for the admin dashboard.
func (s *Service) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	return s.store.DashboardStats(ctx, s.clock())
}
