package demand

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pourcost/topshelf/internal/model"
)

// cacheEntry represents a cached demand prediction.
type cacheEntry struct {
	expiry time.Time
	units  float64
}

// predictionCache provides thread-safe caching of demand predictions. The
// pure-function contract makes (price, context) a stable cache key, which
// matters because the optimizer and the orchestrator both evaluate the
// current price.
type predictionCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newPredictionCache creates a new cache with the specified TTL.
func newPredictionCache(ttl time.Duration) *predictionCache {
	if ttl == 0 {
		ttl = 5 * time.Minute // Default TTL
	}

	cache := &predictionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func cacheKey(price float64, dctx model.DemandContext) string {
	return fmt.Sprintf("%.4f|%s|%s|%s|%d|%d|%t|%s|%.3f",
		price, dctx.Venue, model.NormalizedBottle(dctx.Bottle), dctx.Type,
		dctx.Weekday(), dctx.ClockHour(), dctx.IsWeekend, dctx.EventType, dctx.InventoryLevel)
}

func (c *predictionCache) get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return 0, false
	}

	if time.Now().After(entry.expiry) {
		return 0, false
	}

	return entry.units, true
}

func (c *predictionCache) set(key string, units float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		units:  units,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *predictionCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *predictionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *predictionCache) Close() {
	close(c.stopCh)
}

// CachedPredictor wraps a predictor with a TTL cache.
type CachedPredictor struct {
	inner Predictor
	cache *predictionCache
}

// NewCachedPredictor creates a caching wrapper around a predictor. The TTL
// should not exceed one recommendation cycle; the contract only guarantees
// stable outputs within a run.
func NewCachedPredictor(inner Predictor, ttl time.Duration) *CachedPredictor {
	return &CachedPredictor{
		inner: inner,
		cache: newPredictionCache(ttl),
	}
}

// Predict implements Predictor.
func (p *CachedPredictor) Predict(ctx context.Context, price float64, dctx model.DemandContext) (float64, error) {
	key := cacheKey(price, dctx)
	if units, ok := p.cache.get(key); ok {
		return units, nil
	}

	units, err := p.inner.Predict(ctx, price, dctx)
	if err != nil {
		return 0, err
	}

	p.cache.set(key, units)
	return units, nil
}

// Size returns the number of live cache entries.
func (p *CachedPredictor) Size() int {
	return p.cache.size()
}

// Close releases the cache's background resources.
func (p *CachedPredictor) Close() {
	p.cache.Close()
}
