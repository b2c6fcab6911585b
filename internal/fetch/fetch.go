// Package fetch retrieves page bytes over HTTP for the scraper. It is the
// only component that talks to the network.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a basic fetcher using net/http.
type Client struct {
	client    *http.Client
	userAgent string
}

// New creates a Client with a per-request timeout and user agent.
func New(timeout time.Duration, userAgent string) *Client {
	return &Client{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Get fetches rawURL and returns the response body. Scheme-less URLs
// default to http. Non-2xx responses are returned as errors so callers
// treat the job as terminated.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", u.String(), resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
