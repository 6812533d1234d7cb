package mapper

import (
	"fmt"
	"time"

	"go-agenda-sync/modules/calendar/dto"
	"go-agenda-sync/modules/calendar/entity"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ToCalendarEvent converts a provider event into the local entity. Remote
// events always carry an external id; the local id mirrors it so the event
// keeps a stable handle if it is ever detached from the remote copy.
func ToCalendarEvent(remote dto.GoogleCalendarEvent) (entity.CalendarEvent, error) {
	if remote.ID == "" {
		return entity.CalendarEvent{}, fmt.Errorf("remote event missing id")
	}

	event := entity.CalendarEvent{
		LocalID:     remote.ID,
		ExternalID:  remote.ID,
		Title:       remote.Summary,
		Description: remote.Description,
	}

	switch {
	case remote.Start.DateTime != "":
		start, err := time.Parse(time.RFC3339, remote.Start.DateTime)
		if err != nil {
			return entity.CalendarEvent{}, fmt.Errorf("remote event %s has malformed start: %w", remote.ID, err)
		}
		event.Date = start.Format(dateLayout)
		event.StartTime = start.Format(timeLayout)
	case remote.Start.Date != "":
		// All-day event: date only, no times.
		if _, err := time.Parse(dateLayout, remote.Start.Date); err != nil {
			return entity.CalendarEvent{}, fmt.Errorf("remote event %s has malformed start date: %w", remote.ID, err)
		}
		event.Date = remote.Start.Date
	default:
		return entity.CalendarEvent{}, fmt.Errorf("remote event %s missing start", remote.ID)
	}

	if remote.End.DateTime != "" {
		end, err := time.Parse(time.RFC3339, remote.End.DateTime)
		if err != nil {
			return entity.CalendarEvent{}, fmt.Errorf("remote event %s has malformed end: %w", remote.ID, err)
		}
		event.EndTime = end.Format(timeLayout)
	}

	return event, nil
}

// ToGoogleCreateRequest builds the provider create payload from a local
// event, stamping the caller's time zone on both endpoints.
func ToGoogleCreateRequest(event entity.CalendarEvent, location *time.Location) (dto.GoogleEventCreateRequest, error) {
	start, err := combineDateTime(event.Date, event.StartTime, location)
	if err != nil {
		return dto.GoogleEventCreateRequest{}, fmt.Errorf("event %s has invalid start: %w", event.LocalID, err)
	}
	end, err := combineDateTime(event.Date, event.EndTime, location)
	if err != nil {
		return dto.GoogleEventCreateRequest{}, fmt.Errorf("event %s has invalid end: %w", event.LocalID, err)
	}

	return dto.GoogleEventCreateRequest{
		Summary:     event.Title,
		Description: event.Description,
		Start: dto.EventTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: location.String(),
		},
		End: dto.EventTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: location.String(),
		},
	}, nil
}

func combineDateTime(date string, clock string, location *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	return time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, location)
}
