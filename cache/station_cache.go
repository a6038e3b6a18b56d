package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Musarty/logger"
	"Musarty/model"

	"github.com/redis/go-redis/v9"
)

const stationKeyPrefix = "musarty:stations:"

// StationCache keeps directory query results in Redis for a short TTL.
type StationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStationCache returns a cache that expires entries after ttl.
func NewStationCache(client *redis.Client, ttl time.Duration) *StationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StationCache{client: client, ttl: ttl}
}

// GetStations returns the cached stations for key. A miss is (nil, false, nil).
func (c *StationCache) GetStations(ctx context.Context, key string) ([]model.Station, bool, error) {
	data, err := c.client.Get(ctx, stationKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var stations []model.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next write.
		logger.Warn("discarding corrupt station cache entry", logger.String("key", key), logger.ErrorField(err))
		return nil, false, nil
	}
	if stations == nil {
		stations = []model.Station{}
	}
	return stations, true, nil
}

// SetStations stores stations under key with the cache TTL.
func (c *StationCache) SetStations(ctx context.Context, key string, stations []model.Station) error {
	data, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("marshal stations: %w", err)
	}
	if err := c.client.Set(ctx, stationKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	logger.Debug("station cache stored",
		logger.String("key", key),
		logger.Int("count", len(stations)),
		logger.Duration("ttl", c.ttl))
	return nil
}
