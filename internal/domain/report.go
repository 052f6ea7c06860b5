package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Report is the structured answer produced by the language model.
type Report struct {
	Title   string     `json:"report_title"`
	Summary string     `json:"summary"`
	Impacts ImpactList `json:"impacts"`
}

// ImpactList decodes a JSON array of impacts. A lone object or string is
// taken as a one-element list and null as empty.
type ImpactList []Impact

// UnmarshalJSON implements json.Unmarshaler.
func (l *ImpactList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var items []Impact
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var one Impact
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = ImpactList{one}
	return nil
}

// Impact describes the expected effect of one event. Models are loose about
// the shape of each entry, so decoding accepts either an object or a bare string.
type Impact struct {
	Location    string `json:"location,omitempty"`
	Magnitude   string `json:"magnitude,omitempty"`
	Description string `json:"impact,omitempty"`
}

// UnmarshalJSON accepts {"location":..,"magnitude":..,"impact":..}, common
// key variants, or a plain string description.
func (i *Impact) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = Impact{Description: s}
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("impact: %w", err)
	}
	*i = Impact{
		Location:    firstString(fields, "location", "Location", "place"),
		Magnitude:   firstString(fields, "magnitude", "Magnitude"),
		Description: firstString(fields, "impact", "potential_impact", "description", "Impact"),
	}
	return nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return stringify(v)
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// PopulationFeature is one record returned by the enrichment service. The
// upstream schema is provisional, so properties are kept as an opaque map.
type PopulationFeature struct {
	Properties map[string]any
}

// Name returns the "name" property if present.
func (f PopulationFeature) Name() string {
	return firstString(f.Properties, "name")
}

// Value returns the "value" property if present.
func (f PopulationFeature) Value() string {
	return firstString(f.Properties, "value")
}

// Summary renders the feature for display, falling back to the raw properties
// when the expected keys are absent.
func (f PopulationFeature) Summary() string {
	name, value := f.Name(), f.Value()
	switch {
	case name != "" && value != "":
		return name + ": " + value
	case name != "":
		return name
	case value != "":
		return value
	}
	b, err := json.Marshal(f.Properties)
	if err != nil {
		return ""
	}
	return string(b)
}

// Enrichment is the population context found near one event.
type Enrichment struct {
	EventID  string
	Features []PopulationFeature
}

// Enricher looks up population context around a coordinate. Implementations
// return an empty slice, not an error, when there is simply nothing to report.
type Enricher interface {
	PopulationNear(ctx context.Context, lat, lon float64) ([]PopulationFeature, error)
}

// EnrichEvents collects population context for each event. Lookup failures
// degrade to "no data" for that event. A nil enricher yields nil.
func EnrichEvents(ctx context.Context, events []Event, enricher Enricher, logger *slog.Logger) []Enrichment {
	if enricher == nil {
		return nil
	}
	var out []Enrichment
	for _, e := range events {
		features, err := enricher.PopulationNear(ctx, e.Latitude, e.Longitude)
		if err != nil {
			logger.Warn("population lookup failed",
				"event_id", e.ID,
				"lat", e.Latitude,
				"lon", e.Longitude,
				"error", err,
			)
			continue
		}
		if len(features) == 0 {
			continue
		}
		out = append(out, Enrichment{EventID: e.ID, Features: features})
	}
	return out
}

// DescribeEnrichment renders enrichment as short lines, "no data" when empty.
func DescribeEnrichment(enrichment []Enrichment) string {
	if len(enrichment) == 0 {
		return "no data"
	}
	var b strings.Builder
	for i, en := range enrichment {
		if i > 0 {
			b.WriteString("\n")
		}
		parts := make([]string, len(en.Features))
		for j, f := range en.Features {
			parts[j] = f.Summary()
		}
		fmt.Fprintf(&b, "%s: %s", en.EventID, strings.Join(parts, "; "))
	}
	return b.String()
}
