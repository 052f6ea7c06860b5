package dashboard

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseState() State {
	return State{
		UpdatedAt: time.Date(2024, 1, 15, 16, 10, 0, 0, nzdt),
		Events:    sampleEvents(),
	}
}

func TestRender_Sections(t *testing.T) {
	st := baseState()
	st.Report = &domain.Report{
		Title:   "Seddon quake",
		Summary: "A strong but brief shake.",
		Impacts: []domain.Impact{{Location: "Seddon", Magnitude: "5.2", Description: "Minor damage possible"}},
	}

	out := Render(st, 120)

	assert.Contains(t, out, "GeoNet Real-time Earthquake Reporter")
	assert.Contains(t, out, "Last updated: 16:10:00")
	assert.Contains(t, out, "Recent Earthquakes on the Map")
	assert.Contains(t, out, "-41.6700")
	assert.Contains(t, out, "Earthquake Magnitude Distribution")
	assert.Contains(t, out, "Latest Earthquake Data")
	assert.Contains(t, out, "2024-01-15 16:04:05")
	assert.Contains(t, out, "Taupō")
	assert.Contains(t, out, "Seddon quake")
	assert.Contains(t, out, "A strong but brief shake.")
	assert.Contains(t, out, "Minor damage possible")
	assert.NotContains(t, out, NoDataMessage)
	assert.NotContains(t, out, "Major Earthquake Detected")
}

func TestRender_AlertBanner(t *testing.T) {
	st := baseState()
	st.Alert = "🚨 Major Earthquake Detected! Magnitude: 5.2, Location: Seddon, Time: 2024-01-15 16:04:05\n" +
		"🚨 Major Earthquake Detected! Magnitude: 4.4, Location: Napier, Time: 2024-01-15 16:00:00"

	out := Render(st, 120)

	assert.Contains(t, out, "Magnitude: 5.2, Location: Seddon")
	assert.Contains(t, out, "Magnitude: 4.4, Location: Napier")
}

func TestRender_NoEventsShowsWarning(t *testing.T) {
	st := State{UpdatedAt: time.Date(2024, 1, 15, 16, 10, 0, 0, nzdt), FetchErr: domain.ErrFetch}

	out := Render(st, 80)

	assert.Contains(t, out, NoDataMessage)
	assert.NotContains(t, out, "Latest Earthquake Data")
	assert.NotContains(t, out, "LLM Report")
}

func TestRender_AlertShownEvenWithoutEvents(t *testing.T) {
	st := State{Alert: "🚨 Major Earthquake Detected! Magnitude: 6.1, Location: Kaikōura, Time: 2024-01-15 16:04:05"}

	out := Render(st, 80)

	assert.Contains(t, out, "Kaikōura")
	assert.Contains(t, out, NoDataMessage)
}

func TestRender_EnrichmentNoData(t *testing.T) {
	st := baseState()
	st.Report = &domain.Report{Title: "t"}

	out := Render(st, 80)

	assert.Contains(t, out, "Population Context")
	assert.Contains(t, out, "no data")
}

func TestRender_ReportErrorPanel(t *testing.T) {
	st := baseState()
	st.ReportErr = fmt.Errorf("%w: failed to parse: %w", domain.ErrModelResponse, errors.New("invalid character"))

	out := Render(st, 120)

	assert.Contains(t, out, "Failed to parse the JSON content from the LLM response.")
	assert.Contains(t, out, "Latest Earthquake Data")
}

func TestReportErrorMessage(t *testing.T) {
	assert.Equal(t, "The API returned an empty or malformed response.", reportErrorMessage(domain.ErrModelNoPayload))
	assert.Equal(t, "Failed to parse the JSON content from the LLM response.", reportErrorMessage(domain.ErrModelResponse))
	assert.Equal(t, "Could not connect to the local LLM server. Is Ollama running?", reportErrorMessage(fmt.Errorf("%w: refused", domain.ErrModelEndpoint)))
	assert.Equal(t, "An unexpected error occurred while calling the LLM.", reportErrorMessage(errors.New("boom")))
}

func TestMagnitudeHistogram(t *testing.T) {
	events := []domain.Event{
		{Magnitude: domain.Float(3.1)},
		{Magnitude: domain.Float(3.4)},
		{Magnitude: domain.Float(4.6)},
		{},
	}

	bins := magnitudeHistogram(events)

	require.Len(t, bins, 4)
	assert.Equal(t, histogramBin{low: 3.0, count: 2}, bins[0])
	assert.Equal(t, histogramBin{low: 3.5, count: 0}, bins[1])
	assert.Equal(t, histogramBin{low: 4.0, count: 0}, bins[2])
	assert.Equal(t, histogramBin{low: 4.5, count: 1}, bins[3])
}

func TestMagnitudeHistogram_NoMagnitudes(t *testing.T) {
	assert.Empty(t, magnitudeHistogram([]domain.Event{{}, {}}))
}

func TestMagnitudeHistogram_SkipsImplausibleMagnitudes(t *testing.T) {
	events := []domain.Event{
		{Magnitude: domain.Float(4.2)},
		{Magnitude: domain.Float(1e308)},
		{Magnitude: domain.Float(-1e308)},
		{Magnitude: domain.Float(math.NaN())},
		{Magnitude: domain.Float(math.Inf(1))},
		{Magnitude: domain.Float(math.Inf(-1))},
	}

	var bins []histogramBin
	assert.NotPanics(t, func() { bins = magnitudeHistogram(events) })
	assert.Equal(t, []histogramBin{{low: 4.0, count: 1}}, bins)
}

func TestMagnitudeHistogram_BoundedBinCount(t *testing.T) {
	bins := magnitudeHistogram([]domain.Event{
		{Magnitude: domain.Float(minHistogramMagnitude)},
		{Magnitude: domain.Float(maxHistogramMagnitude)},
	})

	require.Len(t, bins, int((maxHistogramMagnitude-minHistogramMagnitude)/binWidth)+1)
	assert.Equal(t, 1, bins[0].count)
	assert.Equal(t, 1, bins[len(bins)-1].count)
}

func TestRender_ImplausibleMagnitudeDoesNotPanic(t *testing.T) {
	s := State{Events: []domain.Event{
		{ID: "ok", Magnitude: domain.Float(4.2)},
		{ID: "huge", Magnitude: domain.Float(1e308)},
		{ID: "inf", Magnitude: domain.Float(math.Inf(1))},
	}}

	var out string
	assert.NotPanics(t, func() { out = Render(s, 80) })
	assert.Contains(t, out, " 4.0-4.5")
}

func TestRenderHistogram(t *testing.T) {
	out := renderHistogram([]domain.Event{{Magnitude: domain.Float(4.0)}, {Magnitude: domain.Float(4.2)}})

	assert.Equal(t, 1, strings.Count(out, "\n")+1)
	assert.Contains(t, out, " 4.0-4.5")
	assert.Contains(t, out, strings.Repeat("█", histogramWidth))
}
