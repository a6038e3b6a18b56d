package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"Musarty/logger"
	"Musarty/model"
)

const (
	defaultUserAgent = "Musarty/1.0"
	maxBodyBytes     = 8 << 20
)

var (
	// ErrBadStatus is returned when the directory answers with a non-2xx status.
	ErrBadStatus = errors.New("directory: unexpected status")
	// ErrMalformed is returned when the body is not a JSON array of stations.
	ErrMalformed = errors.New("directory: malformed response")
)

// Client queries the public radio station directory.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent overrides the User-Agent sent with every query.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a directory client for baseURL, e.g. https://de1.api.radio-browser.info.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBaseURL points the client at another directory mirror.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// SetTimeout sets the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// FetchPopular returns up to limit stations ordered by votes, descending, as
// ranked by the directory. On failure it returns an empty list and the error.
func (c *Client) FetchPopular(ctx context.Context, limit int) ([]model.Station, error) {
	endpoint := fmt.Sprintf("%s/json/stations/topvote/%d", c.baseURL, limit)
	stations, err := c.query(ctx, endpoint)
	if err != nil {
		logger.Error("[FetchPopular] directory query failed",
			logger.Int("limit", limit),
			logger.ErrorField(err))
		return []model.Station{}, err
	}
	logger.Debug("[FetchPopular] stations received",
		logger.Int("limit", limit),
		logger.Int("count", len(stations)))
	return stations, nil
}

// SearchByName returns stations whose name matches query. Matching is done by
// the directory. A blank query degrades to FetchPopular.
func (c *Client) SearchByName(ctx context.Context, query string, limit int) ([]model.Station, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.FetchPopular(ctx, limit)
	}

	params := url.Values{}
	params.Set("name", query)
	params.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/json/stations/search?%s", c.baseURL, params.Encode())

	stations, err := c.query(ctx, endpoint)
	if err != nil {
		logger.Error("[SearchByName] directory query failed",
			logger.String("query", query),
			logger.Int("limit", limit),
			logger.ErrorField(err))
		return []model.Station{}, err
	}
	logger.Debug("[SearchByName] stations received",
		logger.String("query", query),
		logger.Int("count", len(stations)))
	return stations, nil
}

func (c *Client) query(ctx context.Context, endpoint string) ([]model.Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return decodeStations(body)
}

// decodeStations accepts a JSON array (or null) of station records.
func decodeStations(body []byte) ([]model.Station, error) {
	var stations []model.Station
	if err := json.Unmarshal(body, &stations); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if stations == nil {
		stations = []model.Station{}
	}
	return stations, nil
}
