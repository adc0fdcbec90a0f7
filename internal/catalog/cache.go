package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/minhanee-art/kingtire/internal/metrics"
)

const DefaultTTL = time.Minute

// Cache memoizes a Source for a fixed TTL. Concurrent misses share one fetch.
// A failed fetch falls back to the last good snapshot, however old.
type Cache struct {
	src     Source
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Registry
	now     func() time.Time

	mu        sync.RWMutex
	entries   []Entry
	fetchedAt time.Time

	group singleflight.Group
}

func NewCache(src Source, ttl time.Duration, log zerolog.Logger, m *metrics.Registry) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		src:     src,
		ttl:     ttl,
		log:     log.With().Str("component", "catalog_cache").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

// Fetch returns the cached snapshot while it is fresh, otherwise reloads.
func (c *Cache) Fetch(ctx context.Context) ([]Entry, error) {
	if entries, ok := c.fresh(); ok {
		c.metrics.CacheHit()
		c.log.Debug().Int("entries", len(entries)).Msg("serving catalog from cache")
		return entries, nil
	}
	c.metrics.CacheMiss()
	return c.load(ctx, false)
}

// Refresh bypasses the TTL.
func (c *Cache) Refresh(ctx context.Context) ([]Entry, error) {
	return c.load(ctx, true)
}

// Invalidate drops the snapshot; the next Fetch goes to the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Snapshot returns the current entries without fetching.
func (c *Cache) Snapshot() ([]Entry, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries, c.fetchedAt
}

func (c *Cache) fresh() ([]Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.entries, true
	}
	return nil, false
}

func (c *Cache) load(ctx context.Context, force bool) ([]Entry, error) {
	key := "fetch"
	if force {
		key = "refresh"
	}
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// a flight that finished between our miss and this call already did the work
		if !force {
			if entries, ok := c.fresh(); ok {
				return entries, nil
			}
		}
		c.log.Info().Bool("forced", force).Msg("fetching catalog from source")
		entries, err := c.src.Fetch(ctx)
		c.metrics.CatalogFetched(len(entries), err)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []Entry{}
		}
		c.mu.Lock()
		c.entries = entries
		c.fetchedAt = c.now()
		c.mu.Unlock()
		c.log.Info().Int("entries", len(entries)).Msg("catalog refreshed")
		return entries, nil
	})
	if err != nil {
		if stale, at := c.Snapshot(); stale != nil {
			c.log.Warn().Err(err).Time("fetched_at", at).Msg("catalog fetch failed, serving stale snapshot")
			return stale, nil
		}
		c.log.Error().Err(err).Msg("catalog fetch failed, no snapshot to fall back to")
		return nil, err
	}
	if shared {
		c.log.Debug().Msg("catalog fetch shared with concurrent caller")
	}
	return v.([]Entry), nil
}
