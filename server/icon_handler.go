package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"syscall"
	"time"

	"Musarty/logger"
	"Musarty/model"
	"Musarty/storage"

	"github.com/gorilla/mux"
)

const (
	iconPrefix       = "icons/"
	iconFetchTimeout = 8 * time.Second
	defaultIconBytes = 512 * 1024
)

var (
	stationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	errPrivateAddress = errors.New("icon source resolves to a private address")
)

// IconHandler proxies station artwork through the icon store. Any failure
// serves the placeholder so the page layout never breaks.
type IconHandler struct {
	store    storage.IconStore
	web      *webAssets
	client   *http.Client
	maxBytes int64
}

// NewIconHandler creates an IconHandler. maxBytes <= 0 uses 512 KiB. Unless
// allowPrivate is set, sources on loopback, private or link-local addresses
// are refused, including after redirects.
func NewIconHandler(store storage.IconStore, web *webAssets, maxBytes int64, allowPrivate bool) *IconHandler {
	if maxBytes <= 0 {
		maxBytes = defaultIconBytes
	}
	dialer := &net.Dialer{Timeout: iconFetchTimeout}
	if !allowPrivate {
		dialer.Control = refusePrivate
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
	}
	return &IconHandler{
		store:    store,
		web:      web,
		client:   &http.Client{Timeout: iconFetchTimeout, Transport: transport},
		maxBytes: maxBytes,
	}
}

// refusePrivate runs after name resolution, so it sees the address actually
// being dialed.
func refusePrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("dial %s: unparsable address", address)
	}
	if !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", errPrivateAddress, ip)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsMulticast())
}

// iconKey stores each source separately, so a request can only ever be
// answered with bytes fetched from the src it named.
func iconKey(id, src string) string {
	sum := sha256.Sum256([]byte(src))
	return iconPrefix + id + "/" + hex.EncodeToString(sum[:])[:16]
}

// IconPath is the proxied icon address for st, or "" when it has none.
func IconPath(st model.Station) string {
	if !st.HasIcon() || !stationIDPattern.MatchString(st.ID) {
		return ""
	}
	return "/api/icons/" + st.ID + "?src=" + url.QueryEscape(st.IconURL)
}

func (h *IconHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["stationId"]
	if !stationIDPattern.MatchString(id) {
		h.servePlaceholder(w)
		return
	}
	src := r.URL.Query().Get("src")
	if !(model.Station{IconURL: src}).HasIcon() {
		h.servePlaceholder(w)
		return
	}
	key := iconKey(id, src)
	ctx := r.Context()

	obj, err := h.store.Get(ctx, key)
	if err == nil {
		h.serve(w, obj.ContentType, obj.Data)
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("icon store read failed", logger.String("key", key), logger.ErrorField(err))
	}

	data, contentType, err := h.fetch(ctx, src)
	if err != nil {
		if errors.Is(err, errPrivateAddress) {
			logger.Warn("refused icon source", logger.String("station", id), logger.String("src", src))
		} else {
			logger.Debug("icon fetch failed", logger.String("station", id), logger.ErrorField(err))
		}
		h.servePlaceholder(w)
		return
	}

	if err := h.store.Put(ctx, key, data, contentType); err != nil {
		logger.Warn("icon store write failed", logger.String("key", key), logger.ErrorField(err))
	}
	h.serve(w, contentType, data)
}

func (h *IconHandler) fetch(ctx context.Context, src string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, iconFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > h.maxBytes {
		return nil, "", fmt.Errorf("icon larger than %d bytes", h.maxBytes)
	}

	contentType := imageType(resp.Header.Get("Content-Type"), data)
	if contentType == "" {
		return nil, "", fmt.Errorf("not an image")
	}
	return data, contentType, nil
}

// imageType trusts the declared type when it is an image and sniffs
// otherwise. It returns "" for anything that is not an image.
func imageType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}

func (h *IconHandler) serve(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(data)
}

func (h *IconHandler) servePlaceholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(h.web.placeholder())
}
