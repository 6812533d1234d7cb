package entity

import "time"

// Reminder is one entry in a user's reminder collection. NotificationSent
// transitions false to true at most once per due occurrence; rescheduling the
// date or time resets it so the reminder fires again.
type Reminder struct {
	LocalID          string `json:"local_id"`
	Title            string `json:"title"`
	Date             string `json:"date"` // YYYY-MM-DD
	Time             string `json:"time"` // HH:MM
	Description      string `json:"description,omitempty"`
	IsComplete       bool   `json:"is_complete"`
	NotificationSent bool   `json:"notification_sent"`
	EmailEnabled     bool   `json:"email_enabled"`
	Email            string `json:"email,omitempty"`
	SMSEnabled       bool   `json:"sms_enabled"`
	Phone            string `json:"phone,omitempty"`
}

// DueAt combines the reminder's date and time in the given location.
func (r Reminder) DueAt(location *time.Location) (time.Time, error) {
	clock := r.Time
	if clock == "" {
		clock = "00:00"
	}
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+clock, location)
}

// Due reports whether the reminder's trigger time has passed at now.
func (r Reminder) Due(now time.Time, location *time.Location) bool {
	dueAt, err := r.DueAt(location)
	if err != nil {
		return false
	}
	return !now.Before(dueAt)
}
