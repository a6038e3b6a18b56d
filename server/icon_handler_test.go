package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"Musarty/core/session"
	"Musarty/model"
	"Musarty/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000IHDR")

func getIcon(t *testing.T, srv *httptest.Server, id, src string) (*http.Response, []byte) {
	t.Helper()
	u := srv.URL + "/api/icons/" + id
	if src != "" {
		u += "?src=" + url.QueryEscape(src)
	}
	resp, err := http.Get(u)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

func TestIconProxy_FetchesAndCaches(t *testing.T) {
	var hits int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	defer origin.Close()

	srv, _, icons := newTestServer(t, &stubDirectory{})

	resp, body := getIcon(t, srv, "s1", origin.URL+"/logo.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, pngHeader, body)

	obj, err := icons.Get(context.Background(), iconKey("s1", origin.URL+"/logo.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, obj.Data)

	// Served from the store without touching the origin.
	_, body = getIcon(t, srv, "s1", origin.URL+"/logo.png")
	assert.Equal(t, pngHeader, body)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestIconProxy_KeysBySource(t *testing.T) {
	evil := []byte("\x89PNG\r\n\x1a\nEVILIHDR")
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(evil)
	}))
	defer other.Close()
	legit := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	defer legit.Close()

	srv, _, icons := newTestServer(t, &stubDirectory{})

	_, body := getIcon(t, srv, "s1", other.URL+"/x.png")
	assert.Equal(t, evil, body)

	_, body = getIcon(t, srv, "s1", legit.URL+"/logo.png")
	assert.Equal(t, pngHeader, body, "a cached icon from another source must not be served")

	objs, err := icons.List(context.Background(), "icons/s1/")
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestIconKey(t *testing.T) {
	a := iconKey("s1", "https://example.com/a.png")
	assert.True(t, strings.HasPrefix(a, "icons/s1/"))
	assert.Len(t, a, len("icons/s1/")+16)
	assert.Equal(t, a, iconKey("s1", "https://example.com/a.png"))
	assert.NotEqual(t, a, iconKey("s1", "https://example.com/b.png"))
	assert.NotEqual(t, a, iconKey("s2", "https://example.com/a.png"))
}

func TestIconProxy_RefusesPrivateSources(t *testing.T) {
	var hits int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	defer origin.Close()

	hub := session.NewHub()
	go hub.Run()
	defer hub.Stop()
	cfg := testConfig()
	cfg.IconAllowPrivate = false
	icons := storage.NewMemoryStore(0)
	srv := httptest.NewServer(New(cfg, &stubDirectory{}, icons, hub).Handler())
	defer srv.Close()

	resp, body := getIcon(t, srv, "s1", origin.URL+"/logo.png")
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "<svg"))
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))

	objs, err := icons.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestIsPublicIP(t *testing.T) {
	cases := map[string]bool{
		"93.184.216.34":    true,
		"2606:4700::1111":  true,
		"127.0.0.1":        false,
		"::1":              false,
		"10.1.2.3":         false,
		"172.16.0.9":       false,
		"192.168.1.1":      false,
		"169.254.169.254":  false,
		"fe80::1":          false,
		"fd00::1":          false,
		"0.0.0.0":          false,
		"::ffff:127.0.0.1": false,
	}
	for addr, want := range cases {
		assert.Equal(t, want, isPublicIP(net.ParseIP(addr)), addr)
	}
}

func TestIconProxy_SniffsGenericContentType(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngHeader)
	}))
	defer origin.Close()

	srv, _, _ := newTestServer(t, &stubDirectory{})
	resp, _ := getIcon(t, srv, "s1", origin.URL)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestIconProxy_FallsBackToPlaceholder(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>nope</html>"))
	}))
	defer html.Close()
	huge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(append(pngHeader, make([]byte, 4096)...))
	}))
	defer huge.Close()

	srv, _, icons := newTestServer(t, &stubDirectory{})

	cases := []struct {
		name, id, src string
	}{
		{"no source", "s1", ""},
		{"relative source", "s1", "/logo.png"},
		{"bad scheme", "s1", "ftp://example.com/logo.png"},
		{"origin 404", "s1", notFound.URL},
		{"not an image", "s1", html.URL},
		{"too large", "s1", huge.URL},
		{"bad station id", "bad.id", notFound.URL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := getIcon(t, srv, tc.id, tc.src)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
			assert.True(t, strings.HasPrefix(string(body), "<svg"))
		})
	}

	objs, err := icons.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, objs, "failures are not stored")
}

func TestIconPath(t *testing.T) {
	st := model.Station{ID: "9617a958-0601-11e8-ae97-52543be04c81", IconURL: "https://example.com/a b.png"}
	assert.Equal(t, "/api/icons/9617a958-0601-11e8-ae97-52543be04c81?src=https%3A%2F%2Fexample.com%2Fa+b.png", IconPath(st))

	assert.Empty(t, IconPath(model.Station{ID: "s1"}))
	assert.Empty(t, IconPath(model.Station{ID: "s1", IconURL: "data:image/png;base64,xx"}))
	assert.Empty(t, IconPath(model.Station{ID: "a/b", IconURL: "https://example.com/x.png"}))
}
