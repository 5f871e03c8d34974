package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/invest-be/internal/models"
)

const investmentColumns = `i.id, i.user_id, i.project_id, COALESCE(p.title, ''), i.amount, i.annual_yield_percent,
	i.duration_months, i.expected_return, i.accrued_yield, i.status, i.started_at, i.matures_at, i.last_accrued_at,
	i.completed_at, i.created_at`

const investmentFrom = ` FROM investments i LEFT JOIN projects p ON p.id = i.project_id`

func scanInvestment(row pgx.Row) (models.Investment, error) {
	var inv models.Investment
	err := row.Scan(&inv.ID, &inv.UserID, &inv.ProjectID, &inv.ProjectTitle, &inv.Amount, &inv.AnnualYieldPercent,
		&inv.DurationMonths, &inv.ExpectedReturn, &inv.AccruedYield, &inv.Status, &inv.StartedAt, &inv.MaturesAt,
		&inv.LastAccruedAt, &inv.CompletedAt, &inv.CreatedAt)
	return inv, err
}

func (r *repo) CreateInvestment(ctx context.Context, inv models.Investment) (models.Investment, error) {
	const query = `
		INSERT INTO investments (user_id, project_id, amount, annual_yield_percent, duration_months, expected_return,
			accrued_yield, status, started_at, matures_at, last_accrued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(ctx, query, inv.UserID, inv.ProjectID, inv.Amount, inv.AnnualYieldPercent, inv.DurationMonths,
		inv.ExpectedReturn, inv.AccruedYield, inv.Status, inv.StartedAt, inv.MaturesAt, inv.LastAccruedAt).Scan(&id)
	if err != nil {
		return models.Investment{}, mapWriteErr(err)
	}
	return r.GetInvestment(ctx, id)
}

func (r *repo) GetInvestment(ctx context.Context, id int64) (models.Investment, error) {
	inv, err := scanInvestment(r.q.QueryRow(ctx, `SELECT `+investmentColumns+investmentFrom+` WHERE i.id = $1`, id))
	return inv, mapReadErr(err)
}

func (r *repo) GetInvestmentForUpdate(ctx context.Context, id int64) (models.Investment, error) {
	inv, err := scanInvestment(r.q.QueryRow(ctx, `SELECT `+investmentColumns+investmentFrom+` WHERE i.id = $1 FOR UPDATE OF i`, id))
	return inv, mapReadErr(err)
}

func (r *repo) ListInvestments(ctx context.Context, filter models.InvestmentFilter) ([]models.Investment, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("i.user_id = $%d", len(args)))
	}
	if filter.ProjectID > 0 {
		args = append(args, filter.ProjectID)
		where = append(where, fmt.Sprintf("i.project_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("i.status = $%d", len(args)))
	}
	query := `SELECT ` + investmentColumns + investmentFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.created_at DESC, i.id DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvestment)
}

func (r *repo) ListActiveInvestmentIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM investments WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (int64, error) {
		var id int64
		err := row.Scan(&id)
		return id, err
	})
}

func (r *repo) UpdateInvestment(ctx context.Context, inv models.Investment) (models.Investment, error) {
	const query = `
		UPDATE investments SET accrued_yield = $2, status = $3, last_accrued_at = $4, completed_at = $5
		WHERE id = $1`
	if err := expectOne(r.q.Exec(ctx, query, inv.ID, inv.AccruedYield, inv.Status, inv.LastAccruedAt, inv.CompletedAt)); err != nil {
		return models.Investment{}, err
	}
	return r.GetInvestment(ctx, inv.ID)
}

func (r *repo) CountInvestments(ctx context.Context, projectID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM investments WHERE project_id = $1`, projectID).Scan(&n)
	return n, err
}
