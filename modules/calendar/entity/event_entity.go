package entity

// CalendarEvent is one entry in a user's event collection. LocalID is
// assigned at local creation and never changes; ExternalID appears once the
// event is known to the remote calendar and identifies at most one event in
// the merged collection.
type CalendarEvent struct {
	LocalID     string `json:"local_id"`
	Title       string `json:"title"`
	Date        string `json:"date"`       // YYYY-MM-DD
	StartTime   string `json:"start_time"` // HH:MM, empty for all-day
	EndTime     string `json:"end_time"`
	Description string `json:"description,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

// DedupKey is the merge deduplication key: external id when present,
// otherwise local id. The prefixes keep the two id spaces from colliding.
func (e CalendarEvent) DedupKey() string {
	if e.ExternalID != "" {
		return "ext:" + e.ExternalID
	}
	return "loc:" + e.LocalID
}
