package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAlerts struct {
	text string
	ok   bool
	err  error
}

func (m *mockAlerts) Read() (string, bool, error) { return m.text, m.ok, m.err }

type mockEvents struct {
	events []domain.Event
	err    error
}

func (m *mockEvents) FetchEvents(_ context.Context) ([]domain.Event, error) {
	return m.events, m.err
}

type mockReports struct {
	report  domain.Report
	err     error
	persona string
	calls   int
}

func (m *mockReports) BuildReport(_ context.Context, _ []domain.Event, _ []domain.Enrichment, persona string) (domain.Report, error) {
	m.calls++
	m.persona = persona
	return m.report, m.err
}

func sampleEvents() []domain.Event {
	return []domain.Event{
		{ID: "2024p038419", Location: "Seddon", Magnitude: domain.Float(5.2), DepthKm: 12, Intensity: "5",
			ObservedAt: time.Date(2024, 1, 15, 16, 4, 5, 0, time.UTC)},
		{ID: "2024p038420", Location: "Taupō", DepthKm: 5.25, Intensity: "3"},
	}
}

func testDeps() *Deps {
	return &Deps{
		Alerts:  &mockAlerts{},
		Events:  &mockEvents{events: sampleEvents()},
		Reports: &mockReports{report: domain.Report{Title: "Seddon quake", Summary: "A strong shake."}},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func run(t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	cmd := NewRoot(func() (*Deps, error) { return deps, nil })
	cmd.SetArgs(args)
	buf := bytes.NewBuffer(nil)
	cmd.SetOut(buf)
	cmd.SetErr(bytes.NewBuffer(nil))
	err := cmd.Execute()
	return buf.String(), err
}

// --- tests ---

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRoot(nil)
	require.Equal(t, "quakectl", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["status"])
	assert.True(t, names["events"])
	assert.True(t, names["report"])
}

func TestStatus_NoAlert(t *testing.T) {
	out, err := run(t, testDeps(), "status")
	require.NoError(t, err)
	assert.Equal(t, "no active alert\n", out)
}

func TestStatus_WhitespaceIsNoAlert(t *testing.T) {
	deps := testDeps()
	deps.Alerts = &mockAlerts{text: "\n  ", ok: true}

	out, err := run(t, deps, "status")
	require.NoError(t, err)
	assert.Equal(t, "no active alert\n", out)
}

func TestStatus_ActiveAlert(t *testing.T) {
	deps := testDeps()
	deps.Alerts = &mockAlerts{text: "🚨 Major Earthquake Detected! Magnitude: 5.2, Location: Seddon, Time: 2024-01-15 16:04:05", ok: true}

	out, err := run(t, deps, "status")
	require.NoError(t, err)
	assert.Equal(t, "🚨 Major Earthquake Detected! Magnitude: 5.2, Location: Seddon, Time: 2024-01-15 16:04:05\n", out)
}

func TestStatus_ReadError(t *testing.T) {
	deps := testDeps()
	deps.Alerts = &mockAlerts{err: errors.New("permission denied")}

	_, err := run(t, deps, "status")
	assert.EqualError(t, err, "permission denied")
}

func TestLoaderErrorIsReturned(t *testing.T) {
	cmd := NewRoot(func() (*Deps, error) { return nil, errors.New("invalid CACHE_TTL") })
	cmd.SetArgs([]string{"status"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.EqualError(t, cmd.Execute(), "invalid CACHE_TTL")
}

func TestEvents(t *testing.T) {
	out, err := run(t, testDeps(), "events")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "LOCATION")
	assert.Contains(t, out, "2024p038419")
	assert.Contains(t, out, "2024-01-15 16:04:05")
	assert.Contains(t, out, "5.2")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "Taupō")
}

func TestEvents_Empty(t *testing.T) {
	deps := testDeps()
	deps.Events = &mockEvents{events: []domain.Event{}}

	out, err := run(t, deps, "events")
	require.NoError(t, err)
	assert.Equal(t, "no events\n", out)
}

func TestEvents_FetchError(t *testing.T) {
	deps := testDeps()
	deps.Events = &mockEvents{err: domain.ErrFetch}

	_, err := run(t, deps, "events")
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestReport(t *testing.T) {
	deps := testDeps()
	deps.Persona = "from config"
	reports := &mockReports{report: domain.Report{
		Title:   "Seddon quake",
		Summary: "A strong shake.",
		Impacts: []domain.Impact{{Location: "Seddon", Magnitude: "5.2", Description: "Minor damage possible"}},
	}}
	deps.Reports = reports

	out, err := run(t, deps, "report", "--persona", "urban planner")
	require.NoError(t, err)

	assert.Equal(t, "urban planner", reports.persona)
	assert.Contains(t, out, "# Seddon quake")
	assert.Contains(t, out, "A strong shake.")
	assert.Contains(t, out, "- Minor damage possible (Seddon, M5.2)")
	assert.Contains(t, out, "Population context: no data")
}

func TestReport_PersonaDefaultsFromConfig(t *testing.T) {
	deps := testDeps()
	deps.Persona = "real estate agent"
	reports := &mockReports{}
	deps.Reports = reports

	_, err := run(t, deps, "report")
	require.NoError(t, err)
	assert.Equal(t, "real estate agent", reports.persona)
}

func TestReport_NoData(t *testing.T) {
	deps := testDeps()
	events := sampleEvents()
	events[0].Magnitude = nil
	deps.Events = &mockEvents{events: events}
	reports := &mockReports{}
	deps.Reports = reports

	_, err := run(t, deps, "report")
	require.ErrorIs(t, err, errNoData)
	assert.Equal(t, 0, reports.calls)
}

func TestReport_FetchError(t *testing.T) {
	deps := testDeps()
	deps.Events = &mockEvents{err: domain.ErrFetch}

	_, err := run(t, deps, "report")
	require.ErrorIs(t, err, errNoData)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestReport_ModelFailure(t *testing.T) {
	deps := testDeps()
	deps.Reports = &mockReports{err: domain.ErrModelNoPayload}

	_, err := run(t, deps, "report")
	assert.ErrorIs(t, err, domain.ErrModelResponse)
}
