package geonet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/observability"
)

// Client implements domain.EventSource against the GeoNet quake API.
type Client struct {
	feedURL    string
	httpClient *http.Client
	location   *time.Location
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GeoNet feed client. feedURL carries the fixed intensity
// filter; timestamps are rendered in loc.
func NewClient(feedURL string, timeout time.Duration, loc *time.Location, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		location: loc,
		metrics:  metrics,
		logger:   logger,
	}
}

// FetchEvents returns the first domain.FeedLimit events in source order.
// Transport and HTTP failures wrap domain.ErrFetch; an unreadable body wraps
// domain.ErrParse.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	start := time.Now()
	events, err := c.fetch(ctx)
	c.metrics.FeedDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.FeedRequests.WithLabelValues("success").Inc()
	return events, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/vnd.geo+json;version=2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: geonet request: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: geonet API error: status %d: %s", domain.ErrFetch, resp.StatusCode, body)
	}

	var feed response
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}
	if feed.Features == nil {
		return nil, fmt.Errorf("%w: response has no features list", domain.ErrParse)
	}

	features := feed.Features
	if len(features) > domain.FeedLimit {
		features = features[:domain.FeedLimit]
	}

	events := make([]domain.Event, 0, len(features))
	for i, raw := range features {
		var f feature
		if err := json.Unmarshal(raw, &f); err != nil {
			c.logger.Warn("skipping malformed feature", "index", i, "error", err)
			continue
		}
		events = append(events, c.toEvent(f))
	}
	return events, nil
}

// toEvent maps a feature defensively: absent or mistyped fields become zero
// values (nil for magnitude) instead of failing the whole fetch.
func (c *Client) toEvent(f feature) domain.Event {
	props := c.decodeProperties(f.Properties)
	e := domain.Event{
		ID:        stringProp(props, "publicID"),
		Location:  stringProp(props, "locality"),
		Magnitude: floatProp(props, "magnitude"),
		Intensity: stringProp(props, "mmi"),
	}
	if depth := floatProp(props, "depth"); depth != nil {
		e.DepthKm = *depth
	}
	if lon, lat, ok := c.decodeCoordinates(e.ID, f.Geometry); ok {
		e.Longitude = lon
		e.Latitude = lat
	}

	raw := stringProp(props, "time")
	if raw != "" {
		observed, err := ParseTimestamp(raw, c.location)
		if err != nil {
			c.logger.Warn("unparseable event time", "event_id", e.ID, "time", raw, "error", err)
		} else {
			e.ObservedAt = observed
		}
	}
	return e
}

func (c *Client) decodeProperties(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		c.logger.Warn("ignoring malformed feature properties", "error", err)
		return nil
	}
	return props
}

// decodeCoordinates reads [lon, lat] from a point geometry. Missing or
// non-numeric coordinates report ok=false.
func (c *Client) decodeCoordinates(id string, raw json.RawMessage) (lon, lat float64, ok bool) {
	if len(raw) == 0 {
		return 0, 0, false
	}
	var g geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		c.logger.Warn("ignoring malformed feature geometry", "event_id", id, "error", err)
		return 0, 0, false
	}
	if len(g.Coordinates) < 2 {
		return 0, 0, false
	}
	lon, lonOK := g.Coordinates[0].(float64)
	lat, latOK := g.Coordinates[1].(float64)
	if !lonOK || !latOK {
		c.logger.Warn("ignoring non-numeric coordinates", "event_id", id, "coordinates", g.Coordinates)
		return 0, 0, false
	}
	return lon, lat, true
}

// ParseTimestamp parses a GeoNet UTC timestamp (trailing "Z") and converts
// it to loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc), nil
}

func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func floatProp(props map[string]any, key string) *float64 {
	switch v := props[key].(type) {
	case float64:
		return &v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// GeoNet API response types.

// Features stay raw so one malformed entry cannot fail the whole feed.
type response struct {
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	Properties json.RawMessage `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type geometry struct {
	Coordinates []any `json:"coordinates"` // [lon, lat]
}
