package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMagnitudeThreshold is the magnitude at or above which an event alerts.
const DefaultMagnitudeThreshold = 4.0

// Alert states carried by AlertTransition.
const (
	AlertActive  = "active"
	AlertCleared = "cleared"
)

// IsMajor reports whether e has a known magnitude at or above threshold.
func IsMajor(e Event, threshold float64) bool {
	return e.Magnitude != nil && *e.Magnitude >= threshold
}

// MajorEvents returns the events that cross threshold, preserving source order.
func MajorEvents(events []Event, threshold float64) []Event {
	var out []Event
	for _, e := range events {
		if IsMajor(e, threshold) {
			out = append(out, e)
		}
	}
	return out
}

// AlertMessage formats the one-line alert for a major event.
func AlertMessage(e Event) string {
	return fmt.Sprintf("🚨 Major Earthquake Detected! Magnitude: %s, Location: %s, Time: %s",
		e.MagnitudeString(), e.Location, e.DisplayTime())
}

// BuildAlert returns the newline-joined alert text for every major event and
// whether any event qualified.
func BuildAlert(events []Event, threshold float64) (string, bool) {
	major := MajorEvents(events, threshold)
	if len(major) == 0 {
		return "", false
	}
	lines := make([]string, len(major))
	for i, e := range major {
		lines[i] = AlertMessage(e)
	}
	return strings.Join(lines, "\n"), true
}

// AlertTransition records a change of the persisted alert.
type AlertTransition struct {
	ID          string    `json:"id"`
	State       string    `json:"state"` // AlertActive or AlertCleared
	Message     string    `json:"message,omitempty"`
	Reason      string    `json:"reason"` // "major_event", "below_threshold", "fetch_failed"
	MajorEvents []string  `json:"major_events,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
