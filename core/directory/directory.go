package directory

import (
	"context"
	"fmt"
	"strings"

	"Musarty/logger"
	"Musarty/model"
)

// Directory is the read-only station directory consumed by the player.
// Implementations return a non-nil, possibly empty slice even when err != nil.
type Directory interface {
	FetchPopular(ctx context.Context, limit int) ([]model.Station, error)
	SearchByName(ctx context.Context, query string, limit int) ([]model.Station, error)
}

// StationCache stores query results keyed by an opaque string.
type StationCache interface {
	GetStations(ctx context.Context, key string) ([]model.Station, bool, error)
	SetStations(ctx context.Context, key string, stations []model.Station) error
}

// Cached serves repeated queries from a StationCache. Only successful
// responses are cached; cache errors are logged and never fail a query.
type Cached struct {
	next  Directory
	cache StationCache
}

// NewCached wraps next with cache.
func NewCached(next Directory, cache StationCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) FetchPopular(ctx context.Context, limit int) ([]model.Station, error) {
	key := PopularKey(limit)
	return c.lookup(ctx, key, func() ([]model.Station, error) {
		return c.next.FetchPopular(ctx, limit)
	})
}

func (c *Cached) SearchByName(ctx context.Context, query string, limit int) ([]model.Station, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.FetchPopular(ctx, limit)
	}
	key := SearchKey(query, limit)
	return c.lookup(ctx, key, func() ([]model.Station, error) {
		return c.next.SearchByName(ctx, query, limit)
	})
}

func (c *Cached) lookup(ctx context.Context, key string, fetch func() ([]model.Station, error)) ([]model.Station, error) {
	stations, ok, err := c.cache.GetStations(ctx, key)
	if err != nil {
		logger.Warn("station cache read failed", logger.String("key", key), logger.ErrorField(err))
	} else if ok {
		logger.Debug("station cache hit", logger.String("key", key), logger.Int("count", len(stations)))
		return stations, nil
	}

	stations, err = fetch()
	if err != nil {
		return stations, err
	}
	if err := c.cache.SetStations(ctx, key, stations); err != nil {
		logger.Warn("station cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
	return stations, nil
}

// PopularKey is the cache key of a popular-stations query.
func PopularKey(limit int) string {
	return fmt.Sprintf("popular:%d", limit)
}

// SearchKey is the cache key of a name search. Queries are case-folded since
// the directory matches names case-insensitively.
func SearchKey(query string, limit int) string {
	return fmt.Sprintf("search:%d:%s", limit, strings.ToLower(strings.TrimSpace(query)))
}
