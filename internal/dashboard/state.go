// Package dashboard assembles the dashboard state once per refresh and renders
// it as a terminal view.
package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/jonboulle/clockwork"
)

// State is everything one dashboard frame shows. It is built at the top of a
// refresh and never mutated by rendering.
type State struct {
	UpdatedAt  time.Time
	Persona    string
	Alert      string // empty when no alert is active
	Events     []domain.Event
	FetchErr   error
	Enrichment []domain.Enrichment
	Report     *domain.Report
	ReportErr  error
}

// HasData reports whether the event-dependent sections should render.
func (s State) HasData() bool {
	return len(s.Events) > 0 && s.Events[0].HasMagnitude()
}

// AlertReader reads the persisted alert text.
type AlertReader interface {
	Read() (string, bool, error)
}

// ReportBuilder produces the plain-language report.
type ReportBuilder interface {
	BuildReport(ctx context.Context, events []domain.Event, enrichment []domain.Enrichment, persona string) (domain.Report, error)
}

// Collector gathers a State from the alert store, the cached feed, the
// optional enricher, and the report builder.
type Collector struct {
	alerts   AlertReader
	events   domain.EventSource
	enricher domain.Enricher
	reports  ReportBuilder
	clock    clockwork.Clock
	location *time.Location
	logger   *slog.Logger
}

// NewCollector creates a Collector. enricher may be nil to disable enrichment.
func NewCollector(alerts AlertReader, events domain.EventSource, enricher domain.Enricher, reports ReportBuilder, clock clockwork.Clock, location *time.Location, logger *slog.Logger) *Collector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = time.Local
	}
	return &Collector{
		alerts:   alerts,
		events:   events,
		enricher: enricher,
		reports:  reports,
		clock:    clock,
		location: location,
		logger:   logger,
	}
}

// Collect builds the State for one refresh. Failures become fields of the
// State; Collect itself never fails.
func (c *Collector) Collect(ctx context.Context, persona string) State {
	st := State{
		UpdatedAt: c.clock.Now().In(c.location),
		Persona:   persona,
	}

	text, ok, err := c.alerts.Read()
	switch {
	case err != nil:
		c.logger.Warn("read notification failed", "error", err)
	case ok && strings.TrimSpace(text) != "":
		st.Alert = text
	}

	events, err := c.events.FetchEvents(ctx)
	if err != nil {
		c.logger.Warn("fetch events failed", "error", err)
		st.FetchErr = err
		return st
	}
	st.Events = events
	if !st.HasData() {
		return st
	}

	st.Enrichment = domain.EnrichEvents(ctx, events, c.enricher, c.logger)

	report, err := c.reports.BuildReport(ctx, events, st.Enrichment, persona)
	if err != nil {
		st.ReportErr = err
		return st
	}
	st.Report = &report
	return st
}
