package statsnz

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/couchcryptid/quake-watch/internal/observability"
)

// CachedEnricher wraps an Enricher with an in-memory LRU cache keyed by
// coordinate rounded to roughly 10 m.
type CachedEnricher struct {
	inner   domain.Enricher
	cache   *lruCache[string, []domain.PopulationFeature]
	metrics *observability.Metrics
}

// NewCachedEnricher creates a cache decorator around an enricher.
func NewCachedEnricher(inner domain.Enricher, maxEntries int, metrics *observability.Metrics) *CachedEnricher {
	return &CachedEnricher{
		inner:   inner,
		cache:   newLRUCache[string, []domain.PopulationFeature](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedEnricher) PopulationNear(ctx context.Context, lat, lon float64) ([]domain.PopulationFeature, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if features, ok := c.cache.get(key); ok {
		c.metrics.EnrichmentCache.WithLabelValues("hit").Inc()
		return features, nil
	}
	c.metrics.EnrichmentCache.WithLabelValues("miss").Inc()

	features, err := c.inner.PopulationNear(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient "no data" responses can be retried.
	if len(features) > 0 {
		c.cache.put(key, features)
	}
	return features, nil
}

// lruCache is a mutex-guarded LRU map. The list front holds the most
// recently used entry.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List
	items      map[K]*list.Element
}

type lruItem[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[K]*list.Element),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruItem[K, V]).value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruItem[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruItem[K, V]).key)
	}
}
