// Package embedding caches embedding vectors behind the tiered cache
// facade so repeated embeddings of the same text skip the provider
// round trip.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/agentcache/cache"
)

// EmbedFunc computes the embedding vector for text. Typically a
// closure over an embedding provider client.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

// Cache deduplicates and caches embedding computations. It depends
// only on the facade surface of the tiered cache, never on the
// individual tiers.
type Cache struct {
	tiers  *cache.TieredCache[[]float64]
	group  singleflight.Group
	logger *zap.Logger
}

// NewCache wraps an initialized tiered cache.
func NewCache(tiers *cache.TieredCache[[]float64], logger *zap.Logger) *Cache {
	return &Cache{
		tiers:  tiers,
		logger: logger.With(zap.String("component", "embedding.cache")),
	}
}

// Key derives the cache key for one (provider, model, text) request.
func (c *Cache) Key(provider, model, text string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + text))
	return hex.EncodeToString(hash[:16])
}

// Get returns the cached vector for the request, or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, provider, model, text string) ([]float64, error) {
	return c.tiers.Get(ctx, c.Key(provider, model, text))
}

// GetOrCompute returns the cached vector, computing and storing it on
// a miss. Concurrent callers for the same key share one computation.
func (c *Cache) GetOrCompute(ctx context.Context, provider, model, text string, embed EmbedFunc) ([]float64, error) {
	key := c.Key(provider, model, text)

	if vec, err := c.tiers.Get(ctx, key); err == nil {
		return vec, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have
		// populated the cache while we waited.
		if vec, err := c.tiers.Get(ctx, key); err == nil {
			return vec, nil
		}

		vec, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}

		c.tiers.Set(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.Debug("embedding computation shared", zap.String("key", key))
	}
	return v.([]float64), nil
}

// Invalidate drops the cached vector for the request.
func (c *Cache) Invalidate(ctx context.Context, provider, model, text string) {
	c.tiers.Invalidate(ctx, c.Key(provider, model, text))
}

// Stats exposes the underlying cache counters.
func (c *Cache) Stats() cache.Stats {
	return c.tiers.Stats()
}
