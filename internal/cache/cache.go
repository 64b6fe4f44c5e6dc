package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/wanderplan/internal/destination"
	"github.com/neexbeast/wanderplan/internal/metrics"
)

// DefaultTTL applies when NewCache is given a non-positive TTL.
const DefaultTTL = time.Hour

const cityCache = "city_detail"

// Cache wraps a Redis client and provides typed get/set for city details.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache whose entries expire after ttl.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// cityKey returns the Redis key for the given city.
func cityKey(cityID int64) string {
	return "city:" + strconv.FormatInt(cityID, 10)
}

// GetCity retrieves a city detail from cache.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetCity(ctx context.Context, cityID int64) (*destination.CityDetail, error) {
	val, err := c.client.Get(ctx, cityKey(cityID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheRequests.WithLabelValues(cityCache, "miss").Inc()
			return nil, nil
		}
		metrics.CacheRequests.WithLabelValues(cityCache, "error").Inc()
		return nil, fmt.Errorf("cache get for city %d: %w", cityID, err)
	}

	var d destination.CityDetail
	if err := json.Unmarshal(val, &d); err != nil {
		metrics.CacheRequests.WithLabelValues(cityCache, "error").Inc()
		return nil, fmt.Errorf("unmarshaling cached city %d: %w", cityID, err)
	}

	metrics.CacheRequests.WithLabelValues(cityCache, "hit").Inc()
	return &d, nil
}

// SetCity stores a city detail with the configured TTL.
func (c *Cache) SetCity(ctx context.Context, d *destination.CityDetail) error {
	if d == nil {
		return nil
	}

	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling city %d: %w", d.CityID, err)
	}

	if err := c.client.Set(ctx, cityKey(d.CityID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for city %d: %w", d.CityID, err)
	}

	return nil
}
