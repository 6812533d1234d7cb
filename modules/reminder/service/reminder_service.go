package service

import (
	"context"
	"time"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/core/utils"
	"go-agenda-sync/modules/reminder/dto"
	"go-agenda-sync/modules/reminder/entity"
	"go-agenda-sync/modules/reminder/repository"
)

type ReminderServiceInterface interface {
	List(ctx context.Context, userKey string) ([]entity.Reminder, *errors.AppError)
	Create(ctx context.Context, userKey string, req *dto.CreateReminderRequest) (*entity.Reminder, *errors.AppError)
	Update(ctx context.Context, userKey string, localID string, req *dto.UpdateReminderRequest) (*entity.Reminder, *errors.AppError)
	Complete(ctx context.Context, userKey string, localID string) (*entity.Reminder, *errors.AppError)
	Delete(ctx context.Context, userKey string, localID string) *errors.AppError
}

type reminderService struct {
	repo     repository.ReminderRepositoryInterface
	location *time.Location
}

func NewReminderService(repo repository.ReminderRepositoryInterface) ReminderServiceInterface {
	return &reminderService{
		repo:     repo,
		location: schedulerLocation(),
	}
}

func schedulerLocation() *time.Location {
	cfg, ok := config.GetSafe()
	if !ok || cfg.Scheduler.Timezone == "" || cfg.Scheduler.Timezone == "Local" {
		return time.Local
	}
	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Warn("ReminderService:SchedulerLocation:Invalid", "timezone", cfg.Scheduler.Timezone, "error", err)
		return time.Local
	}
	return location
}

func (s *reminderService) List(ctx context.Context, userKey string) ([]entity.Reminder, *errors.AppError) {
	reminders, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load reminders", err)
	}
	return reminders, nil
}

func (s *reminderService) Create(ctx context.Context, userKey string, req *dto.CreateReminderRequest) (*entity.Reminder, *errors.AppError) {
	if req.Title == "" || req.Date == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title and date are required", nil)
	}
	if appErr := validateSchedule(req.Date, req.Time, s.location); appErr != nil {
		return nil, appErr
	}

	reminder := entity.Reminder{
		LocalID:      utils.GenerateID(),
		Title:        req.Title,
		Date:         req.Date,
		Time:         req.Time,
		Description:  req.Description,
		EmailEnabled: req.EmailEnabled,
		Email:        req.Email,
		SMSEnabled:   req.SMSEnabled,
		Phone:        req.Phone,
	}

	reminders, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load reminders", err)
	}
	reminders = append(reminders, reminder)
	if err := s.repo.PutCollection(ctx, userKey, reminders); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store reminders", err)
	}

	logger.Info("ReminderService:Create:Success", "user_key", userKey, "reminder", reminder.LocalID)
	return &reminder, nil
}

// Update applies the provided fields. Moving the reminder to a new date or
// time clears NotificationSent so the next due pass fires it again.
func (s *reminderService) Update(ctx context.Context, userKey string, localID string, req *dto.UpdateReminderRequest) (*entity.Reminder, *errors.AppError) {
	reminders, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load reminders", err)
	}

	idx := indexOf(reminders, localID)
	if idx < 0 {
		return nil, errors.NewAppError(errors.ErrNotFound, "reminder not found", nil)
	}
	reminder := reminders[idx]

	rescheduled := false
	if req.Date != nil && *req.Date != reminder.Date {
		reminder.Date = *req.Date
		rescheduled = true
	}
	if req.Time != nil && *req.Time != reminder.Time {
		reminder.Time = *req.Time
		rescheduled = true
	}
	if req.Title != nil {
		reminder.Title = *req.Title
	}
	if req.Description != nil {
		reminder.Description = *req.Description
	}
	if req.EmailEnabled != nil {
		reminder.EmailEnabled = *req.EmailEnabled
	}
	if req.Email != nil {
		reminder.Email = *req.Email
	}
	if req.SMSEnabled != nil {
		reminder.SMSEnabled = *req.SMSEnabled
	}
	if req.Phone != nil {
		reminder.Phone = *req.Phone
	}

	if appErr := validateSchedule(reminder.Date, reminder.Time, s.location); appErr != nil {
		return nil, appErr
	}
	if rescheduled {
		reminder.NotificationSent = false
	}

	reminders[idx] = reminder
	if err := s.repo.PutCollection(ctx, userKey, reminders); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store reminders", err)
	}
	return &reminder, nil
}

func (s *reminderService) Complete(ctx context.Context, userKey string, localID string) (*entity.Reminder, *errors.AppError) {
	reminders, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load reminders", err)
	}

	idx := indexOf(reminders, localID)
	if idx < 0 {
		return nil, errors.NewAppError(errors.ErrNotFound, "reminder not found", nil)
	}
	reminders[idx].IsComplete = true

	if err := s.repo.PutCollection(ctx, userKey, reminders); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store reminders", err)
	}
	return &reminders[idx], nil
}

func (s *reminderService) Delete(ctx context.Context, userKey string, localID string) *errors.AppError {
	reminders, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load reminders", err)
	}

	idx := indexOf(reminders, localID)
	if idx < 0 {
		return errors.NewAppError(errors.ErrNotFound, "reminder not found", nil)
	}
	reminders = append(reminders[:idx], reminders[idx+1:]...)

	if err := s.repo.PutCollection(ctx, userKey, reminders); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to store reminders", err)
	}
	return nil
}

func indexOf(reminders []entity.Reminder, localID string) int {
	for i := range reminders {
		if reminders[i].LocalID == localID {
			return i
		}
	}
	return -1
}

func validateSchedule(date, clock string, location *time.Location) *errors.AppError {
	if _, err := time.ParseInLocation("2006-01-02", date, location); err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "date must be YYYY-MM-DD", err)
	}
	if clock != "" {
		if _, err := time.Parse("15:04", clock); err != nil {
			return errors.NewAppError(errors.ErrInvalidInput, "time must be HH:MM", err)
		}
	}
	return nil
}
