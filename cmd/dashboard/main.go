package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/couchcryptid/quake-watch/internal/adapter/geonet"
	"github.com/couchcryptid/quake-watch/internal/adapter/httpadapter"
	"github.com/couchcryptid/quake-watch/internal/adapter/ollama"
	"github.com/couchcryptid/quake-watch/internal/adapter/statsnz"
	"github.com/couchcryptid/quake-watch/internal/config"
	"github.com/couchcryptid/quake-watch/internal/dashboard"
	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/notify"
	"github.com/couchcryptid/quake-watch/internal/observability"
	"github.com/couchcryptid/quake-watch/internal/report"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dashboard:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to a file so they never draw over the terminal UI.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := observability.NewLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	clock := clockwork.NewRealClock()
	feed := geonet.NewCachedSource(
		geonet.NewClient(cfg.FeedURL, cfg.FeedTimeout, cfg.DisplayLocation, metrics, logger),
		cfg.CacheTTL, clock, metrics,
	)

	// Population enrichment is feature-flagged via STATSNZ_API_KEY.
	var enricher domain.Enricher
	if cfg.EnrichmentEnabled {
		client := statsnz.NewClient(statsnz.Options{
			BaseURL:    cfg.StatsNZURL,
			APIKey:     cfg.StatsNZAPIKey,
			Layer:      cfg.StatsNZLayer,
			Radius:     cfg.StatsNZRadius,
			MaxResults: cfg.StatsNZMaxResults,
			Timeout:    cfg.StatsNZTimeout,
		}, metrics, logger)
		enricher = statsnz.NewCachedEnricher(client, cfg.StatsNZCacheSize, metrics)
		logger.Info("population enrichment enabled", "layer", cfg.StatsNZLayer, "cache_size", cfg.StatsNZCacheSize)
	} else {
		logger.Info("population enrichment disabled")
	}

	assembler := report.NewAssembler(ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaTimeout, logger), logger, metrics)
	store := notify.NewFileStore(cfg.NotificationFile)
	collector := dashboard.NewCollector(store, feed, enricher, assembler, clock, cfg.DisplayLocation, logger)

	if cfg.DashboardHTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.DashboardHTTPAddr, feed, store, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	logger.Info("dashboard starting", "refresh_interval", cfg.RefreshInterval, "cache_ttl", cfg.CacheTTL)
	p := tea.NewProgram(dashboard.New(collector, cfg.RefreshInterval, cfg.Persona), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	logger.Info("dashboard stopped")
	return nil
}
