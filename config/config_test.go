package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "https://de1.api.radio-browser.info", cfg.DirectoryBaseURL)
	assert.Equal(t, 100, cfg.PopularLimit)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.Equal(t, 0.7, cfg.DefaultVolume)
	assert.Equal(t, 10*time.Second, cfg.DirectoryTimeout)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.MinioEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POPULAR_LIMIT", "25")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("STATION_CACHE_TTL", "90s")
	t.Setenv("SEARCH_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 25, cfg.PopularLimit)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 90*time.Second, cfg.StationCacheTTL)
	assert.Equal(t, 50, cfg.SearchLimit, "unparsable values fall back to the default")
}

func TestLoadFile_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "musarty.yaml")
	data := []byte(`
http_addr: ":9090"
search_limit: 20
directory_timeout: 3s
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 20, cfg.SearchLimit)
	assert.Equal(t, 3*time.Second, cfg.DirectoryTimeout)
	assert.Equal(t, 100, cfg.PopularLimit)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_volume: 3\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_ValidatesEnvironmentOnly(t *testing.T) {
	cases := map[string]string{
		"DEFAULT_VOLUME": "5",
		"POPULAR_LIMIT":  "0",
		"SEARCH_LIMIT":   "-3",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadFile("")
			assert.Error(t, err)
		})
	}

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.False(t, cfg.IconAllowPrivate)
}
