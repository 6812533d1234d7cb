package repository

import (
	"context"
	"encoding/json"

	"go-agenda-sync/core/cache"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/calendar/entity"
)

type EventRepositoryInterface interface {
	GetCollection(ctx context.Context, userKey string) ([]entity.CalendarEvent, error)
	PutCollection(ctx context.Context, userKey string, events []entity.CalendarEvent) error
}

// EventRepository reads and writes a user's whole event collection against
// the local store. There are no partial updates: every operation is a full
// read-compute-write cycle.
type EventRepository struct {
	store cache.Cache
}

func NewEventRepository(store cache.Cache) *EventRepository {
	return &EventRepository{store: store}
}

func (r *EventRepository) GetCollection(ctx context.Context, userKey string) ([]entity.CalendarEvent, error) {
	payload, found, err := r.store.GetCollection(ctx, constants.RedisKeyEventCollection+userKey)
	if err != nil {
		logger.Error("EventRepository:GetCollection:Error", "error", err, "user_key", userKey)
		return nil, err
	}
	if !found {
		return []entity.CalendarEvent{}, nil
	}

	var events []entity.CalendarEvent
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		logger.Error("EventRepository:GetCollection:Unmarshal:Error", "error", err, "user_key", userKey)
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) PutCollection(ctx context.Context, userKey string, events []entity.CalendarEvent) error {
	payload, err := json.Marshal(events)
	if err != nil {
		logger.Error("EventRepository:PutCollection:Marshal:Error", "error", err, "user_key", userKey)
		return err
	}
	if err := r.store.PutCollection(ctx, constants.RedisKeyEventCollection+userKey, string(payload)); err != nil {
		return err
	}
	if err := r.store.RegisterUser(ctx, userKey); err != nil {
		logger.Warn("EventRepository:PutCollection:RegisterUser:Error", "error", err, "user_key", userKey)
	}
	return nil
}
