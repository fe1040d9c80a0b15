package postgres

import (
	"context"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

const notificationColumns = `id, user_id, title, message, type, action_url, read, created_at`

type NotificationStore struct {
	db *DB
}

func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) CreateIfAbsent(ctx context.Context, uid string, n *models.Notification) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, type, action_url, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, id) DO NOTHING`,
		n.NotificationID, uid, n.Title, n.Message, string(n.Type), n.ActionURL, n.Read, n.CreatedAt,
	)
	if err != nil {
		return false, errs.NewDatabaseError("create", "failed to create notification", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *NotificationStore) Get(ctx context.Context, uid, id string) (*models.Notification, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 AND id = $2`,
		uid, id,
	)
	n, err := scanNotification(row)
	if err != nil {
		return nil, mapError(err, "read", "notification")
	}
	return n, nil
}

func (s *NotificationStore) List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error) {
	sql := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if q.UnreadOnly {
		sql += ` AND NOT read`
	}
	sql += ` ORDER BY created_at DESC, id`
	args := []any{uid}
	if q.Limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, q.Limit)
	}

	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "read", "notifications")
	}
	defer rows.Close()

	out := []*models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list notifications", err)
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, uid, id string) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND id = $2`,
		uid, id,
	)
	if err != nil {
		return mapError(err, "update", "notification")
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("notification not found")
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, uid string) (int, error) {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`,
		uid,
	)
	if err != nil {
		return 0, mapError(err, "update", "notifications")
	}
	return int(tag.RowsAffected()), nil
}

func (s *NotificationStore) Delete(ctx context.Context, uid, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND id = $2`, uid, id)
	if err != nil {
		return mapError(err, "delete", "notification")
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("notification not found")
	}
	return nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n     models.Notification
		nType string
	)
	if err := row.Scan(&n.NotificationID, &n.UserID, &n.Title, &n.Message, &nType, &n.ActionURL, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(nType)
	return &n, nil
}
