package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/invest-be/internal/models"
)

const adminLogColumns = `id, admin_id, action, target_type, target_id, description, created_at`

func scanAdminLog(row pgx.Row) (models.AdminLog, error) {
	var l models.AdminLog
	err := row.Scan(&l.ID, &l.AdminID, &l.Action, &l.TargetType, &l.TargetID, &l.Description, &l.CreatedAt)
	return l, err
}

func (r *repo) CreateAdminLog(ctx context.Context, l models.AdminLog) (models.AdminLog, error) {
	query := `
		INSERT INTO admin_logs (admin_id, action, target_type, target_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + adminLogColumns
	created, err := scanAdminLog(r.q.QueryRow(ctx, query, l.AdminID, l.Action, l.TargetType, l.TargetID, l.Description))
	if err != nil {
		return models.AdminLog{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) ListAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `SELECT `+adminLogColumns+` FROM admin_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAdminLog)
}

// DashboardStats aggregates platform totals in a single round trip.
func (r *repo) DashboardStats(ctx context.Context, now time.Time) (models.DashboardStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(DISTINCT user_id) FROM investments WHERE status = 'active'),
			(SELECT COUNT(*) FROM profiles WHERE created_at >= $1),
			(SELECT COUNT(*) FROM profiles WHERE created_at >= $2),
			(SELECT COUNT(*) FROM profiles WHERE created_at >= $3),
			(SELECT COALESCE(SUM(balance), 0) FROM profiles),
			(SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE type = 'investment' AND status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE type = 'yield' AND status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE type = 'deposit' AND status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE type = 'withdrawal' AND status = 'completed'),
			(SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM bank_transfers WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM bank_transfers WHERE status = 'pending'),
			(SELECT COUNT(*) FROM projects WHERE status = 'open'),
			(SELECT COUNT(*) FROM projects WHERE status = 'funded')`

	var s models.DashboardStats
	err := r.q.QueryRow(ctx, query, now.Add(-24*time.Hour), now.AddDate(0, 0, -7), now.AddDate(0, -1, 0)).Scan(
		&s.TotalUsers, &s.ActiveInvestors, &s.NewUsers.Day, &s.NewUsers.Week, &s.NewUsers.Month,
		&s.TotalBalance, &s.TotalInvested, &s.TotalYieldPaid, &s.TotalDeposits, &s.TotalWithdrawals,
		&s.PendingWithdrawals.Count, &s.PendingWithdrawals.Amount,
		&s.PendingTransfers.Count, &s.PendingTransfers.Amount,
		&s.OpenProjects, &s.FundedProjects,
	)
	return s, err
}
