package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/invest-be/internal/models"
)

const projectColumns = `id, title, description, category, image_url, target_amount, raised_amount, min_investment,
	max_investment, annual_yield_percent, duration_months, risk_level, status, starts_at, ends_at, created_at, updated_at`

func scanProject(row pgx.Row) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.ImageURL, &p.TargetAmount, &p.RaisedAmount,
		&p.MinInvestment, &p.MaxInvestment, &p.AnnualYieldPercent, &p.DurationMonths, &p.RiskLevel, &p.Status,
		&p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repo) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	query := `
		INSERT INTO projects (title, description, category, image_url, target_amount, raised_amount, min_investment,
			max_investment, annual_yield_percent, duration_months, risk_level, status, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + projectColumns
	row := r.q.QueryRow(ctx, query, p.Title, p.Description, p.Category, p.ImageURL, p.TargetAmount, p.RaisedAmount,
		p.MinInvestment, p.MaxInvestment, p.AnnualYieldPercent, p.DurationMonths, p.RiskLevel, p.Status, p.StartsAt, p.EndsAt)
	created, err := scanProject(row)
	if err != nil {
		return models.Project{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) GetProject(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	return p, mapReadErr(err)
}

func (r *repo) GetProjectForUpdate(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
	return p, mapReadErr(err)
}

func (r *repo) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProject)
}

func (r *repo) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	query := `
		UPDATE projects SET title = $2, description = $3, category = $4, image_url = $5, target_amount = $6,
			raised_amount = $7, min_investment = $8, max_investment = $9, annual_yield_percent = $10,
			duration_months = $11, risk_level = $12, status = $13, starts_at = $14, ends_at = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns
	row := r.q.QueryRow(ctx, query, p.ID, p.Title, p.Description, p.Category, p.ImageURL, p.TargetAmount, p.RaisedAmount,
		p.MinInvestment, p.MaxInvestment, p.AnnualYieldPercent, p.DurationMonths, p.RiskLevel, p.Status, p.StartsAt, p.EndsAt)
	updated, err := scanProject(row)
	if err != nil {
		return models.Project{}, mapReadErr(mapWriteErr(err))
	}
	return updated, nil
}

func (r *repo) DeleteProject(ctx context.Context, id int64) error {
	return expectOne(r.q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id))
}
