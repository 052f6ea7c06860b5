package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
)

// Client calls the Ollama generate endpoint in non-streaming JSON mode.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an Ollama client. A zero timeout leaves the request
// bounded only by the caller's context.
func NewClient(endpoint, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Generate sends prompt and returns the raw "response" payload, which with
// format=json is itself a JSON document. Connection and non-2xx failures wrap
// domain.ErrModelEndpoint; a missing or empty payload returns
// domain.ErrModelNoPayload.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", domain.ErrModelEndpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", domain.ErrModelEndpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: could not connect to the local LLM server: %w", domain.ErrModelEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: ollama API error: status %d: %s", domain.ErrModelEndpoint, resp.StatusCode, msg)
	}

	var envelope generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %w", domain.ErrModelResponse, err)
	}
	if envelope.Response == nil || strings.TrimSpace(*envelope.Response) == "" {
		return "", domain.ErrModelNoPayload
	}

	c.logger.Debug("model responded",
		"model", envelope.Model,
		"total_duration_ns", envelope.TotalDuration,
		"payload_bytes", len(*envelope.Response),
	)
	return *envelope.Response, nil
}

// Ollama API request/response types.

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model         string  `json:"model"`
	Response      *string `json:"response"`
	Done          bool    `json:"done"`
	TotalDuration int64   `json:"total_duration"`
}
