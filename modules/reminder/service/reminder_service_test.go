package service

import (
	"context"
	"testing"
	"time"

	"go-agenda-sync/core/errors"
	"go-agenda-sync/modules/reminder/dto"
	"go-agenda-sync/modules/reminder/entity"
)

func newTestReminderService(repo *fakeReminderRepo) *reminderService {
	return &reminderService{repo: repo, location: time.UTC}
}

func strPtr(s string) *string { return &s }

func TestCreateReminder(t *testing.T) {
	repo := newFakeReminderRepo()
	service := newTestReminderService(repo)

	reminder, appErr := service.Create(context.Background(), "user-1", &dto.CreateReminderRequest{
		Title:        "Pay rent",
		Date:         "2026-09-05",
		Time:         "09:00",
		EmailEnabled: true,
		Email:        "a@b.c",
	})
	if appErr != nil {
		t.Fatalf("Create returned error: %v", appErr)
	}
	if reminder.LocalID == "" {
		t.Fatal("expected a generated local id")
	}
	if reminder.NotificationSent || reminder.IsComplete {
		t.Fatal("new reminders start unsent and incomplete")
	}
	if len(repo.byUser["user-1"]) != 1 {
		t.Fatalf("expected reminder stored, got %+v", repo.byUser["user-1"])
	}
}

func TestCreateReminderValidation(t *testing.T) {
	repo := newFakeReminderRepo()
	service := newTestReminderService(repo)

	cases := []*dto.CreateReminderRequest{
		{Date: "2026-09-05"},
		{Title: "No date"},
		{Title: "Bad date", Date: "05/09/2026"},
		{Title: "Bad time", Date: "2026-09-05", Time: "9am"},
	}
	for _, req := range cases {
		if _, appErr := service.Create(context.Background(), "user-1", req); appErr == nil || appErr.Code != errors.ErrInvalidInput {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", req, appErr)
		}
	}
}

func TestUpdateRescheduleRearmsNotification(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.byUser["user-1"] = []entity.Reminder{
		{LocalID: "r1", Title: "Due", Date: "2026-09-01", Time: "08:00", NotificationSent: true},
	}
	service := newTestReminderService(repo)

	updated, appErr := service.Update(context.Background(), "user-1", "r1", &dto.UpdateReminderRequest{
		Time: strPtr("18:00"),
	})
	if appErr != nil {
		t.Fatalf("Update returned error: %v", appErr)
	}
	if updated.NotificationSent {
		t.Fatal("rescheduling must clear the sent flag so the reminder fires again")
	}
	if updated.Time != "18:00" {
		t.Fatalf("unexpected time %q", updated.Time)
	}
}

func TestUpdateWithoutRescheduleKeepsSentFlag(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.byUser["user-1"] = []entity.Reminder{
		{LocalID: "r1", Title: "Old title", Date: "2026-09-01", Time: "08:00", NotificationSent: true},
	}
	service := newTestReminderService(repo)

	updated, appErr := service.Update(context.Background(), "user-1", "r1", &dto.UpdateReminderRequest{
		Title: strPtr("New title"),
	})
	if appErr != nil {
		t.Fatalf("Update returned error: %v", appErr)
	}
	if !updated.NotificationSent {
		t.Fatal("editing the title must not re-arm the notification")
	}
}

func TestUpdateSameScheduleKeepsSentFlag(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.byUser["user-1"] = []entity.Reminder{
		{LocalID: "r1", Title: "Due", Date: "2026-09-01", Time: "08:00", NotificationSent: true},
	}
	service := newTestReminderService(repo)

	updated, appErr := service.Update(context.Background(), "user-1", "r1", &dto.UpdateReminderRequest{
		Date: strPtr("2026-09-01"),
		Time: strPtr("08:00"),
	})
	if appErr != nil {
		t.Fatalf("Update returned error: %v", appErr)
	}
	if !updated.NotificationSent {
		t.Fatal("writing back the identical schedule must not re-arm the notification")
	}
}

func TestUpdateNotFound(t *testing.T) {
	service := newTestReminderService(newFakeReminderRepo())

	_, appErr := service.Update(context.Background(), "user-1", "missing", &dto.UpdateReminderRequest{})
	if appErr == nil || appErr.Code != errors.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", appErr)
	}
}

func TestCompleteReminder(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.byUser["user-1"] = []entity.Reminder{
		{LocalID: "r1", Title: "Due", Date: "2026-09-01", Time: "08:00"},
	}
	service := newTestReminderService(repo)

	completed, appErr := service.Complete(context.Background(), "user-1", "r1")
	if appErr != nil {
		t.Fatalf("Complete returned error: %v", appErr)
	}
	if !completed.IsComplete {
		t.Fatal("expected reminder marked complete")
	}
	if !repo.byUser["user-1"][0].IsComplete {
		t.Fatal("expected completion persisted")
	}
}

func TestDeleteReminder(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.byUser["user-1"] = []entity.Reminder{
		{LocalID: "r1", Title: "Keep"},
		{LocalID: "r2", Title: "Remove"},
	}
	service := newTestReminderService(repo)

	if appErr := service.Delete(context.Background(), "user-1", "r2"); appErr != nil {
		t.Fatalf("Delete returned error: %v", appErr)
	}
	stored := repo.byUser["user-1"]
	if len(stored) != 1 || stored[0].LocalID != "r1" {
		t.Fatalf("unexpected remaining reminders %+v", stored)
	}

	if appErr := service.Delete(context.Background(), "user-1", "r2"); appErr == nil || appErr.Code != errors.ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", appErr)
	}
}

func TestReminderDue(t *testing.T) {
	location := time.UTC
	reminder := entity.Reminder{Date: "2026-09-01", Time: "08:30"}

	if reminder.Due(time.Date(2026, 9, 1, 8, 29, 0, 0, location), location) {
		t.Fatal("not due one minute early")
	}
	if !reminder.Due(time.Date(2026, 9, 1, 8, 30, 0, 0, location), location) {
		t.Fatal("due exactly at the trigger minute")
	}
	if !reminder.Due(time.Date(2026, 9, 2, 0, 0, 0, 0, location), location) {
		t.Fatal("still due after the trigger time has long passed")
	}

	// No time means start of day.
	allDay := entity.Reminder{Date: "2026-09-01"}
	if !allDay.Due(time.Date(2026, 9, 1, 0, 0, 0, 0, location), location) {
		t.Fatal("date-only reminder is due at midnight")
	}

	malformed := entity.Reminder{Date: "not-a-date"}
	if malformed.Due(time.Date(2026, 9, 1, 0, 0, 0, 0, location), location) {
		t.Fatal("malformed schedule is never due")
	}
}
