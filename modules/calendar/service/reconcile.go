package service

import "go-agenda-sync/modules/calendar/entity"

// Merge produces the canonical event collection from the stored local set and
// a freshly fetched remote window.
//
// The output is the union of (i) every local event that has never been pushed
// (no external id, preserved verbatim) and (ii) every event mapped from the
// remote window. A local edit to an event that already carries an external id
// is superseded by the remote copy on the next pass: remote wins for
// previously-synced items.
//
// Re-running Merge against its own output with an unchanged remote input
// yields an identical collection.
func Merge(local []entity.CalendarEvent, remote []entity.CalendarEvent) []entity.CalendarEvent {
	merged := make([]entity.CalendarEvent, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local)+len(remote))

	for _, event := range local {
		if event.ExternalID != "" {
			continue
		}
		if _, dup := seen[event.DedupKey()]; dup {
			continue
		}
		seen[event.DedupKey()] = struct{}{}
		merged = append(merged, event)
	}

	// Remote order is preserved: the provider returns the window sorted by
	// start time.
	for _, event := range remote {
		if _, dup := seen[event.DedupKey()]; dup {
			continue
		}
		seen[event.DedupKey()] = struct{}{}
		merged = append(merged, event)
	}

	return merged
}
