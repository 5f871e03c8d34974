package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/finance"
	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

// Invest debits the investor's wallet and records a stake in an open project.
func (s *Service) Invest(ctx context.Context, userID int64, req dto.InvestRequest) (models.Investment, error) {
	if err := validate(req); err != nil {
		return models.Investment{}, err
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return models.Investment{}, invalid("amount must be greater than 0")
	}

	var (
		inv    models.Investment
		funded models.Project
		o      outbox
	)
	now := s.clock()
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		investor, err := s.lockInvestorProfiles(ctx, repo, userID)
		if err != nil {
			return err
		}
		project, err := repo.GetProjectForUpdate(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if !project.AcceptsInvestmentsAt(now) {
			return ErrProjectUnavailable
		}
		if amount.LessThan(project.MinInvestment) {
			return invalid("minimum investment for this project is %s", money(project.MinInvestment))
		}
		if project.MaxInvestment.IsPositive() && amount.GreaterThan(project.MaxInvestment) {
			return invalid("maximum investment for this project is %s", money(project.MaxInvestment))
		}
		if amount.GreaterThan(project.Remaining()) {
			return invalid("only %s remains to be raised for this project", money(project.Remaining()))
		}
		_, free, err := available(ctx, repo, userID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(free) {
			return fmt.Errorf("%w: available balance is %s", ErrInsufficientFunds, money(free))
		}

		inv, err = repo.CreateInvestment(ctx, models.Investment{
			UserID:             userID,
			ProjectID:          project.ID,
			Amount:             amount,
			AnnualYieldPercent: project.AnnualYieldPercent,
			DurationMonths:     project.DurationMonths,
			ExpectedReturn:     finance.ExpectedReturn(amount, project.AnnualYieldPercent, project.DurationMonths),
			AccruedYield:       decimal.Zero,
			Status:             models.InvestmentActive,
			StartedAt:          now,
			MaturesAt:          finance.MaturityDate(now, project.DurationMonths),
			LastAccruedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("create investment: %w", err)
		}
		if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{
			UserID:      userID,
			Type:        models.TxInvestment,
			Amount:      amount,
			Status:      models.TxCompleted,
			Reference:   fmt.Sprintf("INV-%d", inv.ID),
			Description: "Investment in " + project.Title,
			RelatedID:   &inv.ID,
		}); err != nil {
			return fmt.Errorf("create investment transaction: %w", err)
		}

		project.RaisedAmount = project.RaisedAmount.Add(amount)
		if !project.RaisedAmount.LessThan(project.TargetAmount) {
			project.Status = models.ProjectFunded
		}
		if funded, err = repo.UpdateProject(ctx, project); err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		_, balance, err := s.recalculate(ctx, repo, userID)
		if err != nil {
			return err
		}

		o.event("investment", "created", inv.ID, userID, inv)
		o.event("project", "updated", project.ID, 0, funded)
		o.event("profile", "balance_updated", userID, userID, map[string]any{"balance": balance})
		if err := s.notify(ctx, repo, &o, userID, models.NotifySuccess, "Investment confirmed",
			fmt.Sprintf("You invested %s in %s.", money(amount), project.Title)); err != nil {
			return err
		}
		o.email(investor.Email, mail.TemplateInvestmentConfirmed, map[string]any{
			"name":            investor.FullName,
			"amount":          money(amount),
			"project":         project.Title,
			"expected_return": money(inv.ExpectedReturn),
			"matures_at":      inv.MaturesAt.Format("2006-01-02"),
		})

		if investor.ReferredBy != nil {
			return s.payCommission(ctx, repo, &o, *investor.ReferredBy, investor, inv)
		}
		return nil
	})
	if err != nil {
		return models.Investment{}, err
	}
	inv.ProjectTitle = funded.Title
	s.flush(ctx, &o)
	s.logger.Info("investment created", zap.Int64("user_id", userID), zap.Int64("project_id", req.ProjectID),
		zap.Int64("investment_id", inv.ID), zap.String("amount", money(amount)))
	return inv, nil
}

// lockInvestorProfiles locks the investor and, when referred, the referrer in
// ascending id order. Both locks are taken before any project row so that
// concurrent investments by a referrer and a referred investor cannot deadlock.
func (s *Service) lockInvestorProfiles(ctx context.Context, repo storage.Repository, userID int64) (models.Profile, error) {
	current, err := repo.GetProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	ids := []int64{userID}
	if current.ReferredBy != nil && *current.ReferredBy != userID {
		ids = append(ids, *current.ReferredBy)
	}
	slices.Sort(ids)

	var investor models.Profile
	for _, id := range ids {
		if id != userID {
			if _, err := repo.GetProfileForUpdate(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return models.Profile{}, err
			}
			continue
		}
		if investor, err = lockActiveProfile(ctx, repo, id); err != nil {
			return models.Profile{}, err
		}
	}
	return investor, nil
}

func (s *Service) payCommission(ctx context.Context, repo storage.Repository, o *outbox, referrerID int64, investor models.Profile, inv models.Investment) error {
	commission := finance.ReferralCommission(inv.Amount, s.settings.ReferralCommissionPercent)
	if !commission.IsPositive() {
		return nil
	}
	// The referrer row is already locked by lockInvestorProfiles.
	if _, err := repo.GetProfile(ctx, referrerID); errors.Is(err, storage.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{
		UserID:      referrerID,
		Type:        models.TxReferralCommission,
		Amount:      commission,
		Status:      models.TxCompleted,
		Reference:   fmt.Sprintf("REF-%d", inv.ID),
		Description: "Referral commission from " + investor.FullName,
		RelatedID:   &inv.ID,
	}); err != nil {
		return fmt.Errorf("create commission transaction: %w", err)
	}
	if err := repo.AddReferralCommission(ctx, investor.ID, commission); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("add referral commission: %w", err)
	}
	_, balance, err := s.recalculate(ctx, repo, referrerID)
	if err != nil {
		return err
	}
	o.event("profile", "balance_updated", referrerID, referrerID, map[string]any{"balance": balance})
	return s.notify(ctx, repo, o, referrerID, models.NotifySuccess, "Referral commission",
		fmt.Sprintf("You earned %s because %s invested.", money(commission), investor.FullName))
}

// ListInvestments lists investments matching filter.
func (s *Service) ListInvestments(ctx context.Context, filter models.InvestmentFilter) ([]models.Investment, error) {
	return s.store.ListInvestments(ctx, filter)
}

// GetInvestment returns an investment owned by userID, or any investment for admins.
func (s *Service) GetInvestment(ctx context.Context, userID, id int64, admin bool) (models.Investment, error) {
	inv, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return models.Investment{}, err
	}
	if !admin && inv.UserID != userID {
		return models.Investment{}, storage.ErrNotFound
	}
	return inv, nil
}

// AccrualReport summarises one yield accrual run.
type AccrualReport struct {
	Processed int             `json:"processed"`
	Matured   int             `json:"matured"`
	Failed    int             `json:"failed"`
	Credited  decimal.Decimal `json:"credited"`
}

// AccrueYields credits whole days of yield to every active investment and
// settles the ones that reached maturity. Each investment runs in its own
// transaction so one failure does not stop the batch. Running it twice on the
// same day credits nothing the second time.
func (s *Service) AccrueYields(ctx context.Context, now time.Time) (AccrualReport, error) {
	report := AccrualReport{Credited: decimal.Zero}
	ids, err := s.store.ListActiveInvestmentIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list active investments: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		credited, changed, matured, err := s.accrueOne(ctx, id, now)
		if err != nil {
			report.Failed++
			s.logger.Error("accrue investment failed", zap.Int64("investment_id", id), zap.Error(err))
			continue
		}
		if !changed {
			continue
		}
		report.Processed++
		report.Credited = report.Credited.Add(credited)
		if matured {
			report.Matured++
		}
	}
	return report, nil
}

func (s *Service) accrueOne(ctx context.Context, id int64, now time.Time) (credited decimal.Decimal, changed, matured bool, err error) {
	var o outbox
	err = s.store.WithTx(ctx, func(repo storage.Repository) error {
		owner, err := repo.GetInvestment(ctx, id)
		if err != nil {
			return err
		}
		if _, err := repo.GetProfileForUpdate(ctx, owner.UserID); err != nil {
			return err
		}
		inv, err := repo.GetInvestmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return nil
		}

		days := finance.AccrualDays(inv.LastAccruedAt, now, inv.MaturesAt)
		matured = !now.Before(inv.MaturesAt)
		if days == 0 && !matured {
			return nil
		}
		changed = true

		remaining := finance.FinalYield(inv.ExpectedReturn, inv.AccruedYield)
		credit := finance.DailyYield(inv.Amount, inv.AnnualYieldPercent).Mul(decimal.NewFromInt(int64(days)))
		if matured || credit.GreaterThan(remaining) {
			credit = remaining
		}

		if credit.IsPositive() {
			if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{
				UserID:      inv.UserID,
				Type:        models.TxYield,
				Amount:      credit,
				Status:      models.TxCompleted,
				Reference:   fmt.Sprintf("YLD-%d-%s", inv.ID, now.Format("20060102")),
				Description: yieldDescription(inv.ProjectTitle, days, matured),
				RelatedID:   &inv.ID,
			}); err != nil {
				return fmt.Errorf("create yield transaction: %w", err)
			}
		}
		inv.AccruedYield = inv.AccruedYield.Add(credit)
		inv.LastAccruedAt = inv.LastAccruedAt.Add(time.Duration(days) * 24 * time.Hour)

		if matured {
			if _, err := repo.CreateTransaction(ctx, models.WalletTransaction{
				UserID:      inv.UserID,
				Type:        models.TxPrincipalReturn,
				Amount:      inv.Amount,
				Status:      models.TxCompleted,
				Reference:   fmt.Sprintf("PRN-%d", inv.ID),
				Description: "Principal returned from " + inv.ProjectTitle,
				RelatedID:   &inv.ID,
			}); err != nil {
				return fmt.Errorf("create principal transaction: %w", err)
			}
			completedAt := now
			inv.Status = models.InvestmentCompleted
			inv.CompletedAt = &completedAt
			inv.LastAccruedAt = inv.MaturesAt
		}

		updated, err := repo.UpdateInvestment(ctx, inv)
		if err != nil {
			return fmt.Errorf("update investment: %w", err)
		}
		_, balance, err := s.recalculate(ctx, repo, inv.UserID)
		if err != nil {
			return err
		}
		credited = credit

		o.event("profile", "balance_updated", inv.UserID, inv.UserID, map[string]any{"balance": balance})
		if matured {
			o.event("investment", "completed", inv.ID, inv.UserID, updated)
			return s.notify(ctx, repo, &o, inv.UserID, models.NotifySuccess, "Investment matured",
				fmt.Sprintf("%s matured. %s principal and %s total yield were credited to your wallet.",
					inv.ProjectTitle, money(inv.Amount), money(inv.AccruedYield)))
		}
		o.event("investment", "yield_accrued", inv.ID, inv.UserID, updated)
		return nil
	})
	if err != nil {
		return decimal.Zero, false, false, err
	}
	s.flush(ctx, &o)
	return credited, changed, matured, nil
}

func yieldDescription(project string, days int, matured bool) string {
	switch {
	case matured:
		return "Final yield on " + project + " at maturity"
	case days == 1:
		return "Yield on " + project + " (1 day)"
	default:
		return fmt.Sprintf("Yield on %s (%d days)", project, days)
	}
}
