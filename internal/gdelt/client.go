// Package gdelt provides a client for the GDELT DOC 2.0 article search API
// and normalization of its CSV article lists into flat event records.
package gdelt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the GDELT DOC API.
	DefaultBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"

	// DefaultTimeout is the default HTTP timeout. The API is slow under
	// load; anything shorter drops too many daily windows.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRecords is the per-request article cap.
	DefaultMaxRecords = 250

	// DefaultRequestDelay is the minimum spacing between daily requests.
	DefaultRequestDelay = 500 * time.Millisecond

	// DefaultUserAgent mimics a desktop browser. The API serves HTML error
	// pages to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// datetimeFormat is the API's startdatetime/enddatetime layout.
	datetimeFormat = "20060102150405"
)

// Client is a GDELT DOC API client.
type Client struct {
	baseURL    string
	query      string
	maxRecords int
	userAgent  string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxRecords sets the per-request article cap.
func WithMaxRecords(maxRecords int) ClientOption {
	return func(c *Client) {
		c.maxRecords = maxRecords
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRequestDelay sets the minimum spacing between requests.
func WithRequestDelay(delay time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
}

// NewClient creates a new GDELT DOC API client for a fixed search query.
func NewClient(query string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		query:      query,
		maxRecords: DefaultMaxRecords,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRequestDelay), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchDayCSV fetches the article list CSV for one calendar day. The window
// spans 00:00:00 through 23:59:59 of the given day.
func (c *Client) FetchDayCSV(ctx context.Context, day time.Time) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())

	params := url.Values{}
	params.Set("query", c.query)
	params.Set("mode", "artlist")
	params.Set("format", "csv")
	params.Set("maxrecords", fmt.Sprintf("%d", c.maxRecords))
	params.Set("startdatetime", dayStart.Format(datetimeFormat))
	params.Set("enddatetime", dayEnd.Format(datetimeFormat))

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL).
			Str("day", dayStart.Format("2006-01-02")).
			Msg("GDELT API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Day:        dayStart.Format("2006-01-02"),
		}
	}

	return string(body), nil
}

// APIError represents a non-200 response from the GDELT API.
type APIError struct {
	StatusCode int
	Message    string
	Day        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GDELT API error for %s (status: %d): %s", e.Day, e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
