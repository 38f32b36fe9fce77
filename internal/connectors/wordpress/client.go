package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pressvec/pressvec-cli/internal/resilience"
)

// Default client configuration.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultPageSize  = 100
	defaultRatePerSec = 10.0
	defaultRateBurst  = 5
)

// totalPagesHeader carries the total page count on collection
// responses.
const totalPagesHeader = "X-WP-TotalPages"

// ClientConfig holds the connection settings for one site.
type ClientConfig struct {
	// SiteURL is the site root, e.g. https://example.com.
	SiteURL string

	// Username and AppPassword authenticate via basic auth with an
	// application password. Both empty means anonymous access.
	Username    string
	AppPassword string

	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
}

// Client is a minimal WordPress REST API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	limiter    *resilience.Limiter
}

// NewClient creates a client for the configured site.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.SiteURL == "" {
		return nil, ErrSiteURLRequired
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.SiteURL, "/") + "/wp-json",
		username:   cfg.Username,
		password:   cfg.AppPassword,
		limiter:    resilience.NewLimiter(defaultRatePerSec, defaultRateBurst),
	}, nil
}

// get performs a GET against a wp/v2 route and decodes the JSON body
// into out. It returns the response headers for pagination metadata.
func (c *Client) get(ctx context.Context, route string, query url.Values, out any) (http.Header, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/wp/v2/" + strings.TrimPrefix(route, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(body),
			URL:        reqURL,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

// apiErrorMessage pulls the message out of a WP error body, falling
// back to a truncated raw body.
func apiErrorMessage(body []byte) string {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		if wpErr.Code != "" {
			return wpErr.Code + ": " + wpErr.Message
		}
		return wpErr.Message
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// totalPages reads the total page count header, defaulting to 1 when
// absent or unparseable.
func totalPages(h http.Header) int {
	n, err := strconv.Atoi(h.Get(totalPagesHeader))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// rendered is WordPress's {"rendered": "..."} wrapper.
type rendered struct {
	Rendered string `json:"rendered"`
}

// post is a raw content record as returned by the REST API.
type post struct {
	ID         int      `json:"id"`
	Date       string   `json:"date_gmt"`
	Modified   string   `json:"modified_gmt"`
	Link       string   `json:"link"`
	Author     int      `json:"author"`
	Title      rendered `json:"title"`
	Content    rendered `json:"content"`
	Categories []int    `json:"categories"`
	Tags       []int    `json:"tags"`
}

// postType is one entry of the /wp/v2/types response.
type postType struct {
	Slug     string `json:"slug"`
	RestBase string `json:"rest_base"`
}

// fetchPage retrieves one page of published records for a content
// type's REST base, returning the records and the total page count.
func (c *Client) fetchPage(ctx context.Context, restBase string, page, perPage int) ([]post, int, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("status", "publish")

	var posts []post
	headers, err := c.get(ctx, restBase, query, &posts)
	if err != nil {
		return nil, 0, err
	}
	return posts, totalPages(headers), nil
}

// fetchTypes retrieves the site's registered content types keyed by
// slug.
func (c *Client) fetchTypes(ctx context.Context) (map[string]postType, error) {
	types := make(map[string]postType)
	if _, err := c.get(ctx, "types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}
