// Package watcher runs the periodic threshold check that maintains the
// notification artifact.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Store persists the alert text between checks.
type Store interface {
	Write(text string) error
	Read() (string, bool, error)
	Clear() error
}

// Publisher announces alert transitions to other systems.
type Publisher interface {
	Publish(ctx context.Context, t domain.AlertTransition) error
}

// Watcher polls the feed on a fixed interval and rewrites or clears the
// notification artifact after every check.
type Watcher struct {
	source    domain.EventSource
	store     Store
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	threshold float64
	interval  time.Duration
	ready     atomic.Bool
}

// New creates a Watcher. publisher may be nil; a nil clock uses the real clock.
func New(source domain.EventSource, store Store, publisher Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, threshold float64, interval time.Duration) *Watcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Watcher{
		source:    source,
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		threshold: threshold,
		interval:  interval,
	}
}

// CheckReadiness returns nil once the first check has completed.
func (w *Watcher) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("watcher has not completed a check yet")
	}
	return nil
}

// Run clears any stale artifact and then checks once per interval until ctx
// is cancelled. The artifact is left as-is on shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.store.Clear(); err != nil {
		w.logger.Warn("clear stale notification failed", "error", err)
	}

	w.logger.Info("watcher started", "interval", w.interval, "threshold", w.threshold)
	w.metrics.WatcherRunning.Set(1)
	defer w.metrics.WatcherRunning.Set(0)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if err := w.Check(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("check failed", "error", err)
			}
		}
	}
}

// Check runs a single fetch-and-update cycle.
func (w *Watcher) Check(ctx context.Context) error {
	logger := w.logger.With("check_id", uuid.NewString())

	previous, hadPrevious, err := w.store.Read()
	if err != nil {
		logger.Warn("read previous notification failed", "error", err)
	}

	events, err := w.source.FetchEvents(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("feed fetch failed, clearing alert", "error", err)
		w.metrics.WatcherChecks.WithLabelValues("fetch_error").Inc()
		return w.clear(ctx, logger, hadPrevious, "fetch_failed")
	}

	major := domain.MajorEvents(events, w.threshold)
	msg, ok := domain.BuildAlert(events, w.threshold)
	if !ok {
		logger.Debug("no event above threshold", "events", len(events))
		w.metrics.WatcherChecks.WithLabelValues("clear").Inc()
		return w.clear(ctx, logger, hadPrevious, "below_threshold")
	}

	if err := w.store.Write(msg); err != nil {
		w.metrics.WatcherChecks.WithLabelValues("store_error").Inc()
		return err
	}
	w.ready.Store(true)
	w.metrics.WatcherChecks.WithLabelValues("alert").Inc()
	w.metrics.AlertActive.Set(1)
	logger.Info("major earthquake alert written", "events", len(major))

	if !hadPrevious || previous != msg {
		ids := make([]string, len(major))
		for i, e := range major {
			ids[i] = e.ID
		}
		w.publish(ctx, logger, domain.AlertTransition{
			State:       domain.AlertActive,
			Message:     msg,
			Reason:      "major_event",
			MajorEvents: ids,
		})
	}
	return nil
}

func (w *Watcher) clear(ctx context.Context, logger *slog.Logger, hadPrevious bool, reason string) error {
	if err := w.store.Clear(); err != nil {
		w.metrics.WatcherChecks.WithLabelValues("store_error").Inc()
		return err
	}
	w.ready.Store(true)
	w.metrics.AlertActive.Set(0)

	if hadPrevious {
		logger.Info("alert cleared", "reason", reason)
		w.publish(ctx, logger, domain.AlertTransition{
			State:  domain.AlertCleared,
			Reason: reason,
		})
	}
	return nil
}

// publish is best effort: failures never touch the artifact.
func (w *Watcher) publish(ctx context.Context, logger *slog.Logger, t domain.AlertTransition) {
	if w.publisher == nil {
		return
	}
	t.ID = uuid.NewString()
	t.OccurredAt = w.clock.Now().UTC()

	if err := w.publisher.Publish(ctx, t); err != nil {
		logger.Warn("publish alert transition failed", "error", err, "state", t.State)
		w.metrics.AlertPublishes.WithLabelValues("error").Inc()
		return
	}
	w.metrics.AlertPublishes.WithLabelValues("success").Inc()
}
