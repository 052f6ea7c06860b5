package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/observability"
)

// Generator sends a prompt to a language model and returns its raw JSON payload.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assembler builds the report prompt and decodes the model's answer.
type Assembler struct {
	generator Generator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewAssembler creates a report Assembler.
func NewAssembler(g Generator, logger *slog.Logger, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		generator: g,
		logger:    logger,
		metrics:   metrics,
	}
}

// BuildReport asks the model for an impact report on events. Enrichment is
// embedded when present. Endpoint failures wrap domain.ErrModelEndpoint;
// unusable payloads wrap domain.ErrModelResponse.
func (a *Assembler) BuildReport(ctx context.Context, events []domain.Event, enrichment []domain.Enrichment, persona string) (domain.Report, error) {
	prompt, err := BuildPrompt(events, enrichment, persona)
	if err != nil {
		return domain.Report{}, err
	}

	start := time.Now()
	payload, err := a.generator.Generate(ctx, prompt)
	a.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.ReportRequests.WithLabelValues(outcome(err)).Inc()
		a.logger.Warn("report generation failed", "error", err)
		return domain.Report{}, err
	}

	if !strings.HasPrefix(strings.TrimSpace(payload), "{") {
		a.metrics.ReportRequests.WithLabelValues("response_error").Inc()
		a.logger.Warn("model payload is not a JSON object", "payload_bytes", len(payload))
		return domain.Report{}, fmt.Errorf("%w: the LLM response is not a JSON object", domain.ErrModelResponse)
	}

	var r domain.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		a.metrics.ReportRequests.WithLabelValues("response_error").Inc()
		a.logger.Warn("model payload is not valid JSON", "error", err, "payload_bytes", len(payload))
		return domain.Report{}, fmt.Errorf("%w: failed to parse the JSON content from the LLM response: %w", domain.ErrModelResponse, err)
	}
	if r.Title == "" {
		r.Title = "Report"
	}

	a.metrics.ReportRequests.WithLabelValues("success").Inc()
	return r, nil
}

func outcome(err error) string {
	if errors.Is(err, domain.ErrModelResponse) {
		return "response_error"
	}
	return "endpoint_error"
}

// promptEvent is the record shape embedded in the prompt.
type promptEvent struct {
	ID        string   `json:"ID"`
	Location  string   `json:"Location"`
	Magnitude *float64 `json:"Magnitude"`
	DepthKm   float64  `json:"Depth (km)"`
	MMI       string   `json:"Shaking Intensity (MMI)"`
	Time      string   `json:"Time (NZST)"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

type promptEnrichment struct {
	EventID string           `json:"event_id"`
	Nearby  []map[string]any `json:"nearby"`
}

// BuildPrompt renders the fixed report prompt.
func BuildPrompt(events []domain.Event, enrichment []domain.Enrichment, persona string) (string, error) {
	records := make([]promptEvent, len(events))
	for i, e := range events {
		records[i] = promptEvent{
			ID:        e.ID,
			Location:  e.Location,
			Magnitude: e.Magnitude,
			DepthKm:   e.DepthKm,
			MMI:       e.Intensity,
			Time:      e.DisplayTime(),
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
		}
	}
	eventJSON, err := marshalIndent(records)
	if err != nil {
		return "", fmt.Errorf("encode events for prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a friendly reporter specializing in New Zealand earthquake information.\n")
	b.WriteString("Based on the latest earthquake data below, please provide a concise and calm explanation\n")
	b.WriteString("of the potential impacts in a way that is easy for the general public to understand.\n")
	b.WriteString("Avoid using technical jargon.\n\n")
	fmt.Fprintf(&b, "User's request: '%s'\n\n", persona)
	b.WriteString("---\nLatest Earthquake Data:\n")
	b.WriteString(eventJSON)
	b.WriteString("\n---\n")

	if len(enrichment) > 0 {
		ctxRecords := make([]promptEnrichment, len(enrichment))
		for i, en := range enrichment {
			nearby := make([]map[string]any, len(en.Features))
			for j, f := range en.Features {
				nearby[j] = f.Properties
			}
			ctxRecords[i] = promptEnrichment{EventID: en.EventID, Nearby: nearby}
		}
		ctxJSON, err := marshalIndent(ctxRecords)
		if err != nil {
			return "", fmt.Errorf("encode enrichment for prompt: %w", err)
		}
		b.WriteString("Population Context (areas near each earthquake):\n")
		b.WriteString(ctxJSON)
		b.WriteString("\n---\n")
	}

	b.WriteString("\nFocus the response on the earthquake's location, magnitude, and potential impacts.\n\n")
	b.WriteString("Please provide the response in a JSON format with the following keys:\n")
	b.WriteString("- 'report_title': A title for the report.\n")
	b.WriteString("- 'summary': A brief summary of the earthquake situation.\n")
	b.WriteString("- 'impacts': An array of objects, where each object describes a specific earthquake's location, magnitude, and potential impact.\n")
	return b.String(), nil
}

// marshalIndent encodes v without escaping non-ASCII place names.
func marshalIndent(v any) (string, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
