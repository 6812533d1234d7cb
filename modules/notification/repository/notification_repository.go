package repository

import (
	"context"
	"time"

	"go-agenda-sync/core/database"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/notification/entity"
)

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByUserKey(ctx context.Context, userKey string, limit int) ([]entity.Notification, error)
	MarkAllAsRead(ctx context.Context, userKey string) error
	CountUnread(ctx context.Context, userKey string) (int, error)
}

type NotificationRepository struct {
	db database.Database
}

func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
		notification.UpdatedAt = notification.CreatedAt
	}
	query := `
		INSERT INTO notifications (user_key, title, message, type, data, is_read, created_at, updated_at)
		VALUES (:user_key, :title, :message, :type, :data, :is_read, :created_at, :updated_at)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, notification)
	if err != nil {
		logger.Error("NotificationRepository:Create:Error", "error", err, "user_key", notification.UserKey)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&notification.ID)
	}
	return nil
}

func (r *NotificationRepository) GetByUserKey(ctx context.Context, userKey string, limit int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []entity.Notification
	query := `
		SELECT * FROM notifications
		WHERE user_key = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &notifications, query, userKey, limit); err != nil {
		logger.Error("NotificationRepository:GetByUserKey:Error", "error", err, "user_key", userKey)
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userKey string) error {
	query := `UPDATE notifications SET is_read = true, updated_at = NOW() WHERE user_key = $1 AND is_read = false`
	if err := r.db.ExecContext(ctx, query, userKey); err != nil {
		logger.Error("NotificationRepository:MarkAllAsRead:Error", "error", err, "user_key", userKey)
		return err
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userKey string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_key = $1 AND is_read = false`
	if err := r.db.GetContext(ctx, &count, query, userKey); err != nil {
		logger.Error("NotificationRepository:CountUnread:Error", "error", err, "user_key", userKey)
		return 0, err
	}
	return count, nil
}
