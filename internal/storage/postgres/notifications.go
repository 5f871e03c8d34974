package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/invest-be/internal/models"
)

const notificationColumns = `id, user_id, title, message, type, read, created_at`

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt)
	return n, err
}

func (r *repo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + notificationColumns
	created, err := scanNotification(r.q.QueryRow(ctx, query, n.UserID, n.Title, n.Message, n.Type))
	if err != nil {
		return models.Notification{}, mapWriteErr(err)
	}
	return created, nil
}

func (r *repo) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 200`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanNotification)
}

func (r *repo) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	return expectOne(r.q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *repo) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	tag, err := r.q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
