package statsnz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/observability"
)

// Options configures the vector query against the population layer.
type Options struct {
	BaseURL    string
	APIKey     string
	Layer      string
	Radius     int // metres
	MaxResults int
	Timeout    time.Duration
}

// Client implements domain.Enricher using the Stats NZ Datafinder vector
// query API.
type Client struct {
	opts       Options
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a population enrichment client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// PopulationNear returns the layer features within the configured radius of
// the coordinate. Without an API key it returns no data and no error.
func (c *Client) PopulationNear(ctx context.Context, lat, lon float64) ([]domain.PopulationFeature, error) {
	if c.opts.APIKey == "" {
		c.metrics.EnrichmentRequests.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	params := url.Values{
		"key":              {c.opts.APIKey},
		"layer":            {c.opts.Layer},
		"x":                {strconv.FormatFloat(lon, 'f', 6, 64)},
		"y":                {strconv.FormatFloat(lat, 'f', 6, 64)},
		"max_results":      {strconv.Itoa(c.opts.MaxResults)},
		"radius":           {strconv.Itoa(c.opts.Radius)},
		"geometry":         {"false"},
		"with_field_names": {"true"},
	}

	features, err := c.doRequest(ctx, c.opts.BaseURL+"?"+params.Encode())
	switch {
	case err != nil:
		c.metrics.EnrichmentRequests.WithLabelValues("error").Inc()
		return nil, err
	case len(features) == 0:
		c.metrics.EnrichmentRequests.WithLabelValues("empty").Inc()
		return nil, nil
	default:
		c.metrics.EnrichmentRequests.WithLabelValues("success").Inc()
		return features, nil
	}
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.PopulationFeature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: population request: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: datafinder API error: status %d: %s", domain.ErrFetch, resp.StatusCode, body)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}

	raw := qr.Features
	if len(raw) == 0 && qr.VectorQuery != nil {
		if layer, ok := qr.VectorQuery.Layers[c.opts.Layer]; ok {
			raw = layer.Features
		}
	}

	features := make([]domain.PopulationFeature, 0, len(raw))
	for _, f := range raw {
		if len(f.Properties) == 0 {
			continue
		}
		features = append(features, domain.PopulationFeature{Properties: f.Properties})
	}
	return features, nil
}

// Datafinder API response types. The service nests features under
// vectorQuery.layers.<id>; a flat "features" list is accepted as well.

type queryResponse struct {
	Features    []rawFeature `json:"features"`
	VectorQuery *vectorQuery `json:"vectorQuery"`
}

type vectorQuery struct {
	Layers map[string]layerResult `json:"layers"`
}

type layerResult struct {
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Properties map[string]any `json:"properties"`
}
