package cli

import (
	"fmt"
	"os"

	"github.com/couchcryptid/quake-watch/internal/adapter/geonet"
	"github.com/couchcryptid/quake-watch/internal/adapter/ollama"
	"github.com/couchcryptid/quake-watch/internal/adapter/statsnz"
	"github.com/couchcryptid/quake-watch/internal/config"
	"github.com/couchcryptid/quake-watch/internal/notify"
	"github.com/couchcryptid/quake-watch/internal/observability"
	"github.com/couchcryptid/quake-watch/internal/report"
)

// LoadDeps wires the commands against the configured services. Logs go to
// stderr so command output stays pipeable.
func LoadDeps() (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetricsForTesting() // a one-shot command has no /metrics to serve

	deps := &Deps{
		Alerts:  notify.NewFileStore(cfg.NotificationFile),
		Events:  geonet.NewClient(cfg.FeedURL, cfg.FeedTimeout, cfg.DisplayLocation, metrics, logger),
		Reports: report.NewAssembler(ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaTimeout, logger), logger, metrics),
		Persona: cfg.Persona,
		Logger:  logger,
	}
	if cfg.EnrichmentEnabled {
		deps.Enricher = statsnz.NewClient(statsnz.Options{
			BaseURL:    cfg.StatsNZURL,
			APIKey:     cfg.StatsNZAPIKey,
			Layer:      cfg.StatsNZLayer,
			Radius:     cfg.StatsNZRadius,
			MaxResults: cfg.StatsNZMaxResults,
			Timeout:    cfg.StatsNZTimeout,
		}, metrics, logger)
	}
	return deps, nil
}
