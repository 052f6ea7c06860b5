package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-watch/internal/adapter/geonet"
	"github.com/couchcryptid/quake-watch/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/quake-watch/internal/adapter/kafka"
	"github.com/couchcryptid/quake-watch/internal/config"
	"github.com/couchcryptid/quake-watch/internal/notify"
	"github.com/couchcryptid/quake-watch/internal/observability"
	"github.com/couchcryptid/quake-watch/internal/watcher"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// The watcher always polls the live feed; it never goes through the cache.
	source := geonet.NewClient(cfg.FeedURL, cfg.FeedTimeout, cfg.DisplayLocation, metrics, logger)
	store := notify.NewFileStore(cfg.NotificationFile)

	// Alert publishing is feature-flagged via KAFKA_BROKERS.
	var (
		publisher watcher.Publisher
		kafkaPub  *kafkaadapter.Publisher
	)
	if cfg.AlertPublishEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("alert publishing disabled")
	}

	w := watcher.New(source, store, publisher, clockwork.NewRealClock(), logger, metrics, cfg.MagnitudeThreshold, cfg.WatchInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, w, store, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	if err := w.Run(ctx); err != nil {
		logger.Error("watcher error", "error", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
