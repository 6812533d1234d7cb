package repository

import (
	"context"
	"encoding/json"

	"go-agenda-sync/core/cache"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/reminder/entity"
)

type ReminderRepositoryInterface interface {
	GetCollection(ctx context.Context, userKey string) ([]entity.Reminder, error)
	PutCollection(ctx context.Context, userKey string, reminders []entity.Reminder) error
}

// ReminderRepository reads and writes a user's whole reminder collection
// against the local store, mirroring the event repository's whole-collection
// semantics.
type ReminderRepository struct {
	store cache.Cache
}

func NewReminderRepository(store cache.Cache) *ReminderRepository {
	return &ReminderRepository{store: store}
}

func (r *ReminderRepository) GetCollection(ctx context.Context, userKey string) ([]entity.Reminder, error) {
	payload, found, err := r.store.GetCollection(ctx, constants.RedisKeyReminderCollection+userKey)
	if err != nil {
		logger.Error("ReminderRepository:GetCollection:Error", "error", err, "user_key", userKey)
		return nil, err
	}
	if !found {
		return []entity.Reminder{}, nil
	}

	var reminders []entity.Reminder
	if err := json.Unmarshal([]byte(payload), &reminders); err != nil {
		logger.Error("ReminderRepository:GetCollection:Unmarshal:Error", "error", err, "user_key", userKey)
		return nil, err
	}
	return reminders, nil
}

func (r *ReminderRepository) PutCollection(ctx context.Context, userKey string, reminders []entity.Reminder) error {
	payload, err := json.Marshal(reminders)
	if err != nil {
		logger.Error("ReminderRepository:PutCollection:Marshal:Error", "error", err, "user_key", userKey)
		return err
	}
	if err := r.store.PutCollection(ctx, constants.RedisKeyReminderCollection+userKey, string(payload)); err != nil {
		return err
	}
	if err := r.store.RegisterUser(ctx, userKey); err != nil {
		logger.Warn("ReminderRepository:PutCollection:RegisterUser:Error", "error", err, "user_key", userKey)
	}
	return nil
}
