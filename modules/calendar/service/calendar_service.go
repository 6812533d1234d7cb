package service

import (
	"context"
	"sync"
	"time"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/core/utils"
	authService "go-agenda-sync/modules/auth/service"
	"go-agenda-sync/modules/calendar/dto"
	"go-agenda-sync/modules/calendar/entity"
	"go-agenda-sync/modules/calendar/repository"
)

type remoteClient interface {
	FetchWindow(ctx context.Context, userKey string, window SyncWindow) ([]entity.CalendarEvent, *errors.AppError)
	PushEvent(ctx context.Context, userKey string, event entity.CalendarEvent, location *time.Location) (string, *errors.AppError)
}

type CalendarServiceInterface interface {
	Sync(ctx context.Context, userKey string) (*dto.SyncResult, *errors.AppError)
	ListEvents(ctx context.Context, userKey string) ([]entity.CalendarEvent, *errors.AppError)
	CreateEvent(ctx context.Context, userKey string, req *dto.CreateEventRequest) (*entity.CalendarEvent, *errors.AppError)
}

type calendarService struct {
	repo        repository.EventRepositoryInterface
	client      remoteClient
	credentials authService.CredentialServiceInterface
	location    *time.Location
	now         func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewCalendarService(repo repository.EventRepositoryInterface, credentials authService.CredentialServiceInterface) CalendarServiceInterface {
	return &calendarService{
		repo:        repo,
		client:      newGoogleClient(credentials),
		credentials: credentials,
		location:    schedulerLocation(),
		now:         time.Now,
		inFlight:    make(map[string]bool),
	}
}

func schedulerLocation() *time.Location {
	cfg, ok := config.GetSafe()
	if !ok || cfg.Scheduler.Timezone == "" || cfg.Scheduler.Timezone == "Local" {
		return time.Local
	}
	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Warn("CalendarService:SchedulerLocation:Invalid", "timezone", cfg.Scheduler.Timezone, "error", err)
		return time.Local
	}
	return location
}

// Sync fetches the current remote window and reconciles it with the stored
// collection. Passes are serialized per user: a request that arrives while
// one is in flight is rejected, never interleaved.
func (s *calendarService) Sync(ctx context.Context, userKey string) (*dto.SyncResult, *errors.AppError) {
	if !s.beginSync(userKey) {
		return nil, errors.NewAppError(errors.ErrSyncInProgress, "a sync is already in progress for this user", nil)
	}
	defer s.endSync(userKey)

	now := s.now()
	window := SyncWindow{
		Start: now.Add(-constants.SyncWindowPast),
		End:   now.Add(constants.SyncWindowFuture),
	}

	local, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load local events", err)
	}

	remote, appErr := s.client.FetchWindow(ctx, userKey, window)
	if appErr != nil {
		logger.Error("CalendarService:Sync:FetchWindow:Error", "error", appErr, "user_key", userKey)
		return nil, appErr
	}

	merged := Merge(local, remote)

	// If the user disconnected while the fetch was in flight, the results are
	// discarded rather than written back.
	if ctx.Err() != nil {
		logger.Info("CalendarService:Sync:Discarded", "reason", "context cancelled", "user_key", userKey)
		return nil, errors.NewAppError(errors.ErrNetworkFailure, "sync cancelled, results discarded", ctx.Err())
	}
	if state := s.credentials.Status(ctx, userKey); state != authService.StateAuthenticated {
		logger.Info("CalendarService:Sync:Discarded", "reason", "disconnected mid-sync", "state", state, "user_key", userKey)
		return nil, errors.NewAppError(errors.ErrAuthExpired, "calendar disconnected during sync, results discarded", nil)
	}

	if err := s.repo.PutCollection(ctx, userKey, merged); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store merged events", err)
	}

	logger.Info("CalendarService:Sync:Success", "user_key", userKey, "fetched", len(remote), "total", len(merged))
	return &dto.SyncResult{
		FetchedRemote: len(remote),
		TotalEvents:   len(merged),
		Events:        merged,
	}, nil
}

func (s *calendarService) ListEvents(ctx context.Context, userKey string) ([]entity.CalendarEvent, *errors.AppError) {
	events, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load events", err)
	}
	return events, nil
}

// CreateEvent adds a locally created event to the collection and, when
// requested, pushes it to the remote calendar to receive its external id.
func (s *calendarService) CreateEvent(ctx context.Context, userKey string, req *dto.CreateEventRequest) (*entity.CalendarEvent, *errors.AppError) {
	if req.Title == "" || req.Date == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title and date are required", nil)
	}
	if _, err := time.ParseInLocation("2006-01-02", req.Date, s.location); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "date must be YYYY-MM-DD", err)
	}

	event := entity.CalendarEvent{
		LocalID:     utils.GenerateID(),
		Title:       req.Title,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	}

	if req.Push {
		externalID, appErr := s.client.PushEvent(ctx, userKey, event, s.location)
		if appErr != nil {
			return nil, appErr
		}
		event.ExternalID = externalID
	}

	events, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load events", err)
	}
	events = append(events, event)
	if err := s.repo.PutCollection(ctx, userKey, events); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store events", err)
	}

	return &event, nil
}

func (s *calendarService) beginSync(userKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userKey] {
		return false
	}
	s.inFlight[userKey] = true
	return true
}

func (s *calendarService) endSync(userKey string) {
	s.mu.Lock()
	delete(s.inFlight, userKey)
	s.mu.Unlock()
}
