package directory

import (
	"context"
	"errors"
	"testing"

	"Musarty/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(stations []model.Station) []string {
	out := make([]string, len(stations))
	for i, s := range stations {
		out[i] = s.ID
	}
	return out
}

type stubDirectory struct {
	popularCalls int
	searchCalls  int
	lastQuery    string
	stations     []model.Station
	err          error
}

func (s *stubDirectory) FetchPopular(ctx context.Context, limit int) ([]model.Station, error) {
	s.popularCalls++
	if s.err != nil {
		return []model.Station{}, s.err
	}
	return s.stations, nil
}

func (s *stubDirectory) SearchByName(ctx context.Context, query string, limit int) ([]model.Station, error) {
	s.searchCalls++
	s.lastQuery = query
	if s.err != nil {
		return []model.Station{}, s.err
	}
	return s.stations, nil
}

type memCache struct {
	data    map[string][]model.Station
	readErr error
	sets    int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]model.Station)}
}

func (m *memCache) GetStations(ctx context.Context, key string) ([]model.Station, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	s, ok := m.data[key]
	return s, ok, nil
}

func (m *memCache) SetStations(ctx context.Context, key string, stations []model.Station) error {
	m.sets++
	m.data[key] = stations
	return nil
}

func TestCached_HitSkipsDirectory(t *testing.T) {
	next := &stubDirectory{stations: []model.Station{{ID: "s1"}, {ID: "s2"}}}
	cache := newMemCache()
	cached := NewCached(next, cache)
	ctx := context.Background()

	first, err := cached.SearchByName(ctx, "Jazz", 50)
	require.NoError(t, err)
	second, err := cached.SearchByName(ctx, " jazz ", 50)
	require.NoError(t, err)

	assert.Equal(t, 1, next.searchCalls)
	assert.Equal(t, "Jazz", next.lastQuery)
	assert.Equal(t, ids(first), ids(second))
	assert.Contains(t, cache.data, SearchKey("jazz", 50))
}

func TestCached_FailuresAreNotCached(t *testing.T) {
	next := &stubDirectory{err: errors.New("offline")}
	cache := newMemCache()
	cached := NewCached(next, cache)

	stations, err := cached.FetchPopular(context.Background(), 100)
	assert.Error(t, err)
	assert.Empty(t, stations)
	assert.Zero(t, cache.sets)
}

func TestCached_ReadErrorFallsThrough(t *testing.T) {
	next := &stubDirectory{stations: []model.Station{{ID: "s1"}}}
	cache := newMemCache()
	cache.readErr = errors.New("redis down")
	cached := NewCached(next, cache)

	stations, err := cached.FetchPopular(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(stations))
	assert.Equal(t, 1, next.popularCalls)
}

func TestCached_BlankSearchUsesPopular(t *testing.T) {
	next := &stubDirectory{stations: []model.Station{{ID: "s1"}}}
	cached := NewCached(next, newMemCache())

	_, err := cached.SearchByName(context.Background(), "   ", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, next.popularCalls)
	assert.Zero(t, next.searchCalls)
}
