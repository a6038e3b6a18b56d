package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Musarty/core/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveReload_BroadcastsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))

	hub := session.NewHub()
	go hub.Run()
	defer hub.Stop()

	s := session.New(hub, nil, &stubDirectory{}, session.Config{})
	require.True(t, hub.Register(s))

	lr, err := WatchWebDir(dir, hub)
	require.NoError(t, err)
	defer lr.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("// v2"), 0o644))

	select {
	case raw := <-s.Send:
		var m session.WSMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.Equal(t, session.MsgTypeReload, m.Type)
	case <-time.After(timeout):
		t.Fatal("no reload broadcast after file change")
	}
}

func TestLiveReload_MissingDir(t *testing.T) {
	hub := session.NewHub()
	go hub.Run()
	defer hub.Stop()

	_, err := WatchWebDir(filepath.Join(t.TempDir(), "missing"), hub)
	assert.Error(t, err)
}
