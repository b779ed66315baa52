package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"weatherdash/internal/modules/weather/fetcher"
	"weatherdash/internal/modules/weather/types"
)

// CachedFetcher wraps a Fetcher and keeps successful reports for a fixed TTL.
// Keys are case-insensitive city names. Failures are never cached.
type CachedFetcher struct {
	source fetcher.Fetcher
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	items  map[string]cacheEntry
	hits   int
	misses int
}

type cacheEntry struct {
	report   types.WeatherReport
	storedAt time.Time
}

func NewCachedFetcher(source fetcher.Fetcher, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFetcher{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
		items:  make(map[string]cacheEntry),
	}
}

func key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Lookup returns the report for city and whether it came from the cache.
// An expired entry is dropped as soon as it is seen.
func (c *CachedFetcher) Lookup(ctx context.Context, city string) (types.WeatherReport, bool, error) {
	k := key(city)
	now := c.now()

	c.mu.Lock()
	entry, found := c.items[k]
	fresh := found && c.fresh(entry, now)
	if fresh {
		c.hits++
	} else {
		if found {
			delete(c.items, k)
		}
		c.misses++
	}
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	if fresh {
		c.logger.Debug("weather cache hit", "city", k, "age", now.Sub(entry.storedAt).Round(time.Second), "hits", hits, "misses", misses)
		return entry.report, true, nil
	}
	c.logger.Debug("weather cache miss", "city", k, "expired", found, "hits", hits, "misses", misses)

	report, err := c.source.Fetch(ctx, city)
	if err != nil {
		return types.WeatherReport{}, false, err
	}
	c.store(k, report)
	return report, false, nil
}

// store saves report under k and sweeps every other expired entry so cities
// that are never asked for again do not pile up.
func (c *CachedFetcher) store(k string, report types.WeatherReport) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for other, entry := range c.items {
		if !c.fresh(entry, now) {
			delete(c.items, other)
		}
	}
	c.items[k] = cacheEntry{report: report, storedAt: now}
}

func (c *CachedFetcher) fresh(entry cacheEntry, now time.Time) bool {
	return now.Sub(entry.storedAt) < c.ttl
}

// Fetch satisfies fetcher.Fetcher so the cache can stand in for the source.
func (c *CachedFetcher) Fetch(ctx context.Context, city string) (types.WeatherReport, error) {
	report, _, err := c.Lookup(ctx, city)
	return report, err
}

var _ fetcher.Fetcher = (*CachedFetcher)(nil)
