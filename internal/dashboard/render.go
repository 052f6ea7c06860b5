package dashboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/couchcryptid/quake-watch/internal/domain"
)

const (
	defaultWidth   = 80
	histogramWidth = 30
	binWidth       = 0.5

	// Magnitudes outside this range are left out of the histogram.
	minHistogramMagnitude = -3.0
	maxHistogramMagnitude = 10.0

	// NoDataMessage is shown in place of the event sections.
	NoDataMessage = "Could not fetch earthquake data. Please try again later."
)

// Render draws a State. It has no side effects.
func Render(s State, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	sections := []string{
		TitleStyle.Render("GeoNet Real-time Earthquake Reporter 🌏"),
		SubtitleStyle.Render("Last updated: " + s.UpdatedAt.Format("15:04:05")),
	}

	if s.Alert != "" {
		sections = append(sections, "", renderAlert(s.Alert, width))
	}

	if !s.HasData() {
		sections = append(sections, "", WarningStyle.Render("⚠ "+NoDataMessage))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections,
		SectionStyle.Render("📍 Recent Earthquakes on the Map"),
		renderLocations(s.Events),
		SectionStyle.Render("📊 Earthquake Magnitude Distribution"),
		renderHistogram(s.Events),
		SectionStyle.Render("📝 Latest Earthquake Data"),
		renderEvents(s.Events),
		SectionStyle.Render("👥 Population Context"),
		domain.DescribeEnrichment(s.Enrichment),
		SectionStyle.Render("🤖 LLM Report"),
		renderReport(s, width),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderAlert(alert string, width int) string {
	lines := strings.Split(strings.TrimRight(alert, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, AlertStyle.Width(width).Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func renderLocations(events []domain.Event) string {
	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %8.4f, %8.4f  M%-5s %s", e.Latitude, e.Longitude, e.MagnitudeString(), e.Location)
	}
	return b.String()
}

type histogramBin struct {
	low   float64
	count int
}

// magnitudeHistogram buckets known magnitudes into bins of binWidth, in
// ascending order. Empty bins between occupied ones are kept. Non-finite or
// implausible magnitudes are skipped, which bounds the number of bins.
func magnitudeHistogram(events []domain.Event) []histogramBin {
	counts := map[int]int{}
	for _, e := range events {
		if e.Magnitude == nil {
			continue
		}
		m := *e.Magnitude
		if math.IsNaN(m) || m < minHistogramMagnitude || m > maxHistogramMagnitude {
			continue
		}
		counts[int(math.Floor(m/binWidth))]++
	}
	if len(counts) == 0 {
		return nil
	}

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	bins := make([]histogramBin, 0, keys[len(keys)-1]-keys[0]+1)
	for k := keys[0]; k <= keys[len(keys)-1]; k++ {
		bins = append(bins, histogramBin{low: float64(k) * binWidth, count: counts[k]})
	}
	return bins
}

func renderHistogram(events []domain.Event) string {
	bins := magnitudeHistogram(events)
	if len(bins) == 0 {
		return MutedStyle.Render("no magnitudes")
	}

	most := 0
	for _, b := range bins {
		most = max(most, b.count)
	}

	lines := make([]string, len(bins))
	for i, b := range bins {
		bar := strings.Repeat("█", b.count*histogramWidth/most)
		lines[i] = fmt.Sprintf("%4.1f-%-4.1f │ %s %d", b.low, b.low+binWidth, BarStyle.Render(bar), b.count)
	}
	return strings.Join(lines, "\n")
}

func renderEvents(events []domain.Event) string {
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{
			e.DisplayTime(),
			e.Location,
			e.MagnitudeString(),
			strconv.FormatFloat(e.DepthKm, 'f', 1, 64),
			e.Intensity,
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Time (NZST)", "Location", "Magnitude", "Depth (km)", "MMI").
		Rows(rows...).
		String()
}

func renderReport(s State, width int) string {
	if s.ReportErr != nil {
		return ErrorStyle.Width(min(width, 100) - 2).Render(reportErrorMessage(s.ReportErr) + "\n" + s.ReportErr.Error())
	}
	if s.Report == nil {
		return MutedStyle.Render("no report")
	}

	parts := []string{}
	if s.Persona != "" {
		parts = append(parts, MutedStyle.Render("Report for: "+s.Persona))
	}
	parts = append(parts,
		TitleStyle.Render(s.Report.Title),
		lipgloss.NewStyle().Width(min(width, 100)).Render(s.Report.Summary),
	)

	if len(s.Report.Impacts) > 0 {
		rows := make([][]string, len(s.Report.Impacts))
		for i, im := range s.Report.Impacts {
			rows[i] = []string{im.Location, im.Magnitude, im.Description}
		}
		parts = append(parts, table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Location", "Magnitude", "Impact").
			Rows(rows...).
			String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// reportErrorMessage turns a report failure into the notice shown in the error panel.
func reportErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrModelNoPayload):
		return "The API returned an empty or malformed response."
	case errors.Is(err, domain.ErrModelResponse):
		return "Failed to parse the JSON content from the LLM response."
	case errors.Is(err, domain.ErrModelEndpoint):
		return "Could not connect to the local LLM server. Is Ollama running?"
	default:
		return "An unexpected error occurred while calling the LLM."
	}
}
