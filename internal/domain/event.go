package domain

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// FeedLimit is the number of events kept from each feed response.
const FeedLimit = 5

// DisplayLayout is the layout used for every user-facing timestamp.
const DisplayLayout = "2006-01-02 15:04:05"

// Event is one normalized seismic event.
type Event struct {
	ID         string
	Location   string
	Magnitude  *float64 // nil when the source omits it
	DepthKm    float64
	Intensity  string // MMI as reported by the source
	ObservedAt time.Time
	Latitude   float64
	Longitude  float64
}

// EventSource returns the current event set.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]Event, error)
}

// HasMagnitude reports whether the source supplied a magnitude.
func (e Event) HasMagnitude() bool {
	return e.Magnitude != nil
}

// MagnitudeString renders the magnitude with the shortest exact
// representation, keeping one decimal for whole values ("4.0"), or "n/a"
// when unknown.
func (e Event) MagnitudeString() string {
	if e.Magnitude == nil {
		return "n/a"
	}
	m := *e.Magnitude
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if !math.IsNaN(m) && !math.IsInf(m, 0) && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// DisplayTime renders ObservedAt with DisplayLayout. A zero time renders empty.
func (e Event) DisplayTime() string {
	if e.ObservedAt.IsZero() {
		return ""
	}
	return e.ObservedAt.Format(DisplayLayout)
}

// Float returns a pointer to v, handy for building events with a magnitude.
func Float(v float64) *float64 {
	return &v
}
