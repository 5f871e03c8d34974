package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/models/dto"
	"github.com/hongminglow/invest-be/internal/storage"
)

var publicProjectStatuses = []string{models.ProjectOpen, models.ProjectFunded}

// ListProjects lists projects. Non-admin callers only see open and funded ones.
func (s *Service) ListProjects(ctx context.Context, filter models.ProjectFilter, admin bool) ([]models.Project, error) {
	if !admin {
		if len(filter.Statuses) == 0 {
			filter.Statuses = publicProjectStatuses
		} else {
			visible := make([]string, 0, len(filter.Statuses))
			for _, status := range filter.Statuses {
				if slices.Contains(publicProjectStatuses, status) {
					visible = append(visible, status)
				}
			}
			if len(visible) == 0 {
				return []models.Project{}, nil
			}
			filter.Statuses = visible
		}
	}
	return s.store.ListProjects(ctx, filter)
}

// GetProject returns one project. Drafts are hidden from non-admin callers.
func (s *Service) GetProject(ctx context.Context, id int64, admin bool) (models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if !admin && project.Status == models.ProjectDraft {
		return models.Project{}, storage.ErrNotFound
	}
	return project, nil
}

// CreateProject stores a new project, defaulting to draft status and medium risk.
func (s *Service) CreateProject(ctx context.Context, adminID int64, req dto.ProjectRequest) (models.Project, error) {
	project, err := projectFromRequest(models.Project{Status: models.ProjectDraft, RiskLevel: models.RiskMedium}, req)
	if err != nil {
		return models.Project{}, err
	}
	project.RaisedAmount = decimal.Zero

	var (
		created models.Project
		o       outbox
	)
	err = s.store.WithTx(ctx, func(repo storage.Repository) error {
		var err error
		created, err = repo.CreateProject(ctx, project)
		if err != nil {
			return err
		}
		o.event("project", "created", created.ID, 0, created)
		return s.audit(ctx, repo, adminID, "project.create", "project", created.ID,
			fmt.Sprintf("Created project %q with target %s", created.Title, money(created.TargetAmount)))
	})
	if err != nil {
		return models.Project{}, err
	}
	s.flush(ctx, &o)
	s.logger.Info("project created", zap.Int64("project_id", created.ID), zap.Int64("admin_id", adminID))
	return created, nil
}

// UpdateProject replaces a project's editable fields. The raised amount is
// owned by investments and cannot be edited.
func (s *Service) UpdateProject(ctx context.Context, adminID, id int64, req dto.ProjectRequest) (models.Project, error) {
	var (
		updated models.Project
		o       outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		existing, err := repo.GetProjectForUpdate(ctx, id)
		if err != nil {
			return err
		}
		project, err := projectFromRequest(existing, req)
		if err != nil {
			return err
		}
		if project.TargetAmount.LessThan(existing.RaisedAmount) {
			return invalid("target_amount cannot be below the %s already raised", money(existing.RaisedAmount))
		}
		updated, err = repo.UpdateProject(ctx, project)
		if err != nil {
			return err
		}
		o.event("project", "updated", updated.ID, 0, updated)
		return s.audit(ctx, repo, adminID, "project.update", "project", updated.ID,
			fmt.Sprintf("Updated project %q (status %s)", updated.Title, updated.Status))
	})
	if err != nil {
		return models.Project{}, err
	}
	s.flush(ctx, &o)
	return updated, nil
}

// DeleteProject removes a project that nobody invested in; otherwise the
// project is closed so existing investments keep their history. The returned
// flag reports whether the row was actually deleted.
func (s *Service) DeleteProject(ctx context.Context, adminID, id int64) (models.Project, bool, error) {
	var (
		project models.Project
		deleted bool
		o       outbox
	)
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		var err error
		project, err = repo.GetProjectForUpdate(ctx, id)
		if err != nil {
			return err
		}
		count, err := repo.CountInvestments(ctx, id)
		if err != nil {
			return fmt.Errorf("count investments: %w", err)
		}
		if count == 0 {
			if err := repo.DeleteProject(ctx, id); err != nil {
				return err
			}
			deleted = true
			o.event("project", "deleted", id, 0, nil)
			return s.audit(ctx, repo, adminID, "project.delete", "project", id,
				fmt.Sprintf("Deleted project %q", project.Title))
		}

		project.Status = models.ProjectClosed
		project, err = repo.UpdateProject(ctx, project)
		if err != nil {
			return err
		}
		o.event("project", "updated", id, 0, project)
		return s.audit(ctx, repo, adminID, "project.close", "project", id,
			fmt.Sprintf("Closed project %q instead of deleting it: %d investments exist", project.Title, count))
	})
	if err != nil {
		return models.Project{}, false, err
	}
	s.flush(ctx, &o)
	return project, deleted, nil
}

func projectFromRequest(base models.Project, req dto.ProjectRequest) (models.Project, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validate(req); err != nil {
		return models.Project{}, err
	}
	switch {
	case !req.TargetAmount.IsPositive():
		return models.Project{}, invalid("target_amount must be greater than 0")
	case req.MinInvestment.IsNegative():
		return models.Project{}, invalid("min_investment must not be negative")
	case req.MaxInvestment.IsNegative():
		return models.Project{}, invalid("max_investment must not be negative")
	case req.MaxInvestment.IsPositive() && req.MaxInvestment.LessThan(req.MinInvestment):
		return models.Project{}, invalid("max_investment must be at least min_investment")
	case req.MinInvestment.GreaterThan(req.TargetAmount):
		return models.Project{}, invalid("min_investment must not exceed target_amount")
	case req.AnnualYieldPercent.IsNegative() || req.AnnualYieldPercent.GreaterThan(decimal.NewFromInt(100)):
		return models.Project{}, invalid("annual_yield_percent must be between 0 and 100")
	case req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt):
		return models.Project{}, invalid("ends_at must be after starts_at")
	}

	p := base
	p.Title = req.Title
	p.Description = strings.TrimSpace(req.Description)
	p.Category = strings.TrimSpace(req.Category)
	p.ImageURL = strings.TrimSpace(req.ImageURL)
	p.TargetAmount = req.TargetAmount.Round(2)
	p.MinInvestment = req.MinInvestment.Round(2)
	p.MaxInvestment = req.MaxInvestment.Round(2)
	p.AnnualYieldPercent = req.AnnualYieldPercent
	p.DurationMonths = req.DurationMonths
	p.StartsAt = req.StartsAt
	p.EndsAt = req.EndsAt
	if req.RiskLevel != "" {
		p.RiskLevel = req.RiskLevel
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	if !models.ValidProjectStatus(p.Status) {
		return models.Project{}, invalid("unknown status %q", p.Status)
	}
	return p, nil
}
