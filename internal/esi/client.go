package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public ESI endpoint.
const DefaultBaseURL = "https://esi.evetech.net/latest"

const userAgent = "eve-starmap/1.0 (github.com)"

// Client is a rate-limited ESI HTTP client.
type Client struct {
	http    *http.Client
	sem     chan struct{}
	baseURL string
	cache   *ResponseCache
}

// NewClient creates an ESI client. An empty baseURL means DefaultBaseURL.
// Uses up to 20 concurrent connections; the map only ever needs a handful.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		sem:     make(chan struct{}, 20),
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   NewResponseCache(),
	}
}

// Cache exposes the response cache (for status reporting).
func (c *Client) Cache() *ResponseCache { return c.cache }

// HealthCheck pings ESI to verify connectivity.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := c.newRequest(ctx, c.url("/status/"))
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == 200
}

// GetJSON fetches a URL and decodes JSON into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst interface{}) error {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

// url builds a tranquility URL for an ESI path such as "/universe/system_kills/".
func (c *Client) url(path string) string {
	return c.baseURL + path + "?datasource=tranquility"
}

// newRequest creates a standard ESI GET request with common headers.
func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
