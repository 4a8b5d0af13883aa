package models

import (
	"strings"
	"time"
)

// LogEvent is a read-only view of one event in the logging store
type LogEvent struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	LogStream string    `json:"log_stream,omitempty"`
	EventID   string    `json:"event_id,omitempty"`
}

// HasMarker reports whether the event message contains marker past its first character.
// Lambda log lines always carry a prefix (timestamp or JSON envelope), so a match at
// index 0 is not the handler's own line.
func (e LogEvent) HasMarker(marker string) bool {
	return strings.Index(e.Message, marker) > 0
}

// FindMarker returns the first event containing marker, if any.
func FindMarker(events []LogEvent, marker string) (LogEvent, bool) {
	for _, event := range events {
		if event.HasMarker(marker) {
			return event, true
		}
	}
	return LogEvent{}, false
}

// FindMarkerSince is FindMarker restricted to events stamped at or after since.
// A zero since matches events of any age.
func FindMarkerSince(events []LogEvent, marker string, since time.Time) (LogEvent, bool) {
	for _, event := range events {
		if !since.IsZero() && event.Timestamp.Before(since) {
			continue
		}
		if event.HasMarker(marker) {
			return event, true
		}
	}
	return LogEvent{}, false
}
