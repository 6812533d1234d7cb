package service

import (
	"context"
	"sync/atomic"
	"time"

	"go-agenda-sync/core/cache"
	"go-agenda-sync/core/logger"
	notificationService "go-agenda-sync/modules/notification/service"
	"go-agenda-sync/modules/reminder/repository"

	"github.com/hibiken/asynq"
)

// Scheduler runs the periodic due check: walk every known user's reminder
// collection and dispatch notifications for reminders whose trigger time has
// passed. The asynq server drives it with concurrency 1; the atomic guard
// makes skipped overlap explicit even if a second enqueue slips through.
type Scheduler struct {
	repo       repository.ReminderRepositoryInterface
	store      cache.Cache
	dispatcher notificationService.DispatcherInterface
	location   *time.Location
	now        func() time.Time

	running atomic.Bool
}

func NewScheduler(repo repository.ReminderRepositoryInterface, store cache.Cache, dispatcher notificationService.DispatcherInterface) *Scheduler {
	return &Scheduler{
		repo:       repo,
		store:      store,
		dispatcher: dispatcher,
		location:   schedulerLocation(),
		now:        time.Now,
	}
}

// HandleDueCheck is the asynq task handler for the periodic due check.
func (s *Scheduler) HandleDueCheck(ctx context.Context, _ *asynq.Task) error {
	s.RunDueCheck(ctx, s.now())
	return nil
}

// RunDueCheck performs one pass at the given instant. Passes never overlap: a
// pass that arrives while one is running is dropped, and the next periodic
// tick picks up whatever it would have found.
func (s *Scheduler) RunDueCheck(ctx context.Context, now time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		logger.Debug("Scheduler:RunDueCheck:Skipped", "reason", "pass already running")
		return
	}
	defer s.running.Store(false)

	users, err := s.store.KnownUsers(ctx)
	if err != nil {
		logger.Error("Scheduler:RunDueCheck:KnownUsers:Error", "error", err)
		return
	}

	for _, userKey := range users {
		if ctx.Err() != nil {
			logger.Warn("Scheduler:RunDueCheck:Aborted", "error", ctx.Err())
			return
		}
		s.processUser(ctx, userKey, now)
	}
}

func (s *Scheduler) processUser(ctx context.Context, userKey string, now time.Time) {
	reminders, err := s.repo.GetCollection(ctx, userKey)
	if err != nil {
		logger.Error("Scheduler:ProcessUser:GetCollection:Error", "error", err, "user_key", userKey)
		return
	}

	for i := range reminders {
		reminder := reminders[i]
		if reminder.IsComplete || reminder.NotificationSent {
			continue
		}
		if !reminder.Due(now, s.location) {
			continue
		}

		s.dispatcher.Dispatch(ctx, userKey, reminder)

		// The attempt ran, so the reminder is marked sent regardless of
		// per-channel outcomes; the collection is persisted before the pass
		// moves on so a crash cannot replay earlier reminders.
		reminders[i].NotificationSent = true
		if err := s.repo.PutCollection(ctx, userKey, reminders); err != nil {
			logger.Error("Scheduler:ProcessUser:PutCollection:Error", "error", err, "user_key", userKey, "reminder", reminder.LocalID)
		}
	}
}
