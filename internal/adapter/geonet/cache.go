package geonet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/observability"
)

// CachedSource wraps an EventSource with time-to-live memoization. Each
// instance holds exactly one entry; sources with different TTLs need
// separate instances.
type CachedSource struct {
	inner   domain.EventSource
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entry   *cacheEntry
	healthy atomic.Bool // last fetch succeeded; readable without mu
}

// cacheEntry is replaced as a whole, never mutated, so readers always see a
// consistent (fetchedAt, value, err) triple.
type cacheEntry struct {
	fetchedAt time.Time
	events    []domain.Event
	err       error
}

// NewCachedSource creates a cache decorator around src. A ttl of zero or less
// disables memoization. A nil clock uses the real clock.
func NewCachedSource(src domain.EventSource, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{
		inner:   src,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

// FetchEvents returns the stored result while it is younger than the TTL and
// otherwise fetches once and stores the outcome, failures included. The lock
// is held across the fetch so concurrent callers on a miss share one request.
func (c *CachedSource) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.entry; e != nil && c.clock.Since(e.fetchedAt) < c.ttl {
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		return cloneEvents(e.events), e.err
	}

	c.metrics.FeedCache.WithLabelValues("miss").Inc()
	events, err := c.inner.FetchEvents(ctx)
	c.entry = &cacheEntry{
		fetchedAt: c.clock.Now(),
		events:    events,
		err:       err,
	}
	c.healthy.Store(err == nil)
	return cloneEvents(events), err
}

// CheckReadiness returns nil when the most recent fetch succeeded. It never
// waits on an in-flight fetch.
func (c *CachedSource) CheckReadiness(_ context.Context) error {
	if !c.healthy.Load() {
		return errors.New("feed has not been fetched successfully")
	}
	return nil
}

// FetchedAt returns when the current entry was stored, or the zero time.
func (c *CachedSource) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return time.Time{}
	}
	return c.entry.fetchedAt
}

func cloneEvents(events []domain.Event) []domain.Event {
	if events == nil {
		return nil
	}
	out := make([]domain.Event, len(events))
	copy(out, events)
	return out
}
