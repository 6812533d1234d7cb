package service

import (
	"context"

	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/notification/entity"
	"go-agenda-sync/modules/notification/repository"
	reminderEntity "go-agenda-sync/modules/reminder/entity"
)

// localChannel records an in-app notification row. It is best-effort: a
// storage error is logged and swallowed, never surfaced to the dispatcher's
// caller and never allowed to block the other channels.
type localChannel struct {
	repo repository.NotificationRepositoryInterface
}

func newLocalChannel(repo repository.NotificationRepositoryInterface) *localChannel {
	return &localChannel{repo: repo}
}

func (c *localChannel) Name() Channel {
	return ChannelLocal
}

func (c *localChannel) Enabled(reminderEntity.Reminder) bool {
	return true
}

func (c *localChannel) Send(ctx context.Context, userKey string, reminder reminderEntity.Reminder) Outcome {
	notification := &entity.Notification{
		UserKey: userKey,
		Title:   "Reminder: " + reminder.Title,
		Message: reminder.Description,
		Type:    "reminder",
		Data: entity.JSONB{
			"reminder_id": reminder.LocalID,
			"date":        reminder.Date,
			"time":        reminder.Time,
		},
		IsRead: false,
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		logger.Warn("LocalChannel:Send:Error", "error", err, "user_key", userKey, "reminder", reminder.LocalID)
	}
	return Outcome{OK: true}
}
