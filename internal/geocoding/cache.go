package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "waypoint:geocode:"

// CachedProvider keeps successful lookups in Redis in front of another provider.
// Redis failures are logged and the lookup falls through to the provider.
type CachedProvider struct {
	next    Provider
	rdb     redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewCachedProvider wraps next with a Redis cache whose entries expire after ttl.
func NewCachedProvider(
	next Provider,
	rdb redis.Cmdable,
	ttl time.Duration,
	metrics *metrics.Metrics,
	log *slog.Logger,
) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl, metrics: metrics, log: log}
}

// CacheKey returns the Redis key used for an address.
func CacheKey(address string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode returns cached coordinates when present, otherwise asks the wrapped provider.
func (cp *CachedProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	key := CacheKey(address)

	if coords, ok := cp.lookup(ctx, key); ok {
		cp.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coords, nil
	}
	cp.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	coords, err := cp.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(coords)
	if err != nil {
		return coords, nil
	}
	if err = cp.rdb.Set(ctx, key, string(data), cp.ttl).Err(); err != nil {
		cp.log.WarnContext(ctx, "Failed to store geocoding result in cache", "key", key, "error", err)
	}

	return coords, nil
}

func (cp *CachedProvider) lookup(ctx context.Context, key string) (*models.Coordinates, bool) {
	raw, err := cp.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		cp.log.WarnContext(ctx, "Geocoding cache unavailable", "key", key, "error", err)
		return nil, false
	}

	var coords models.Coordinates
	if err = json.Unmarshal([]byte(raw), &coords); err != nil {
		cp.log.WarnContext(ctx, "Dropping malformed geocoding cache entry", "key", key, "error", err)
		return nil, false
	}

	return &coords, true
}
