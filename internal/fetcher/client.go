// Package fetcher provides the HTTP client used to fetch crawl targets.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Client wraps an HTTP client with the crawler's user agent and timeout.
// Redirects are followed.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a fetch client.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Get fetches the URL and returns the status code and body. An HTTP status
// of 400 or above is reported as an error of the form "http_<code>" so the
// caller can record it on the queue item verbatim.
func (c *Client) Get(ctx context.Context, url string) (int, []byte, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return 0, nil, fmt.Errorf("create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return 0, nil, doErr
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", readErr)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, body, fmt.Errorf("http_%d", resp.StatusCode)
	}

	return resp.StatusCode, body, nil
}

// Close releases idle connections held by the underlying client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
