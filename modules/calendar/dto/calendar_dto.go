package dto

import "go-agenda-sync/modules/calendar/entity"

// Google Calendar wire shapes.

type GoogleCalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Status      string    `json:"status,omitempty"`
}

type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type GoogleEventList struct {
	Items []GoogleCalendarEvent `json:"items"`
}

type GoogleEventCreateRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// GoogleErrorResponse is the provider's error envelope. A 401 code or
// UNAUTHENTICATED status triggers credential invalidation.
type GoogleErrorResponse struct {
	Error GoogleError `json:"error"`
}

type GoogleError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// API shapes.

type CreateEventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	Push        bool   `json:"push"`
}

type SyncResult struct {
	FetchedRemote int                    `json:"fetched_remote"`
	TotalEvents   int                    `json:"total_events"`
	Events        []entity.CalendarEvent `json:"events"`
}
