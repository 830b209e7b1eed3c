package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"eve-starmap/internal/logger"
)

// cacheEntry holds a response body together with HTTP caching metadata.
type cacheEntry struct {
	body    []byte
	etag    string    // ETag from ESI response
	expires time.Time // parsed Expires header
}

// ResponseCache is a thread-safe in-memory cache for unpaginated ESI responses.
// It uses ETag/Expires headers from ESI to avoid re-downloading unchanged data.
// A singleflight.Group prevents duplicate in-flight fetches for the same URL.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	group   singleflight.Group
	now     func() time.Time
}

// NewResponseCache creates an empty cache.
func NewResponseCache() *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached body and etag for url. fresh is false when the
// entry is missing or expired; an expired entry still returns its etag and
// body so the caller can send a conditional request.
func (rc *ResponseCache) Get(url string) (body []byte, etag string, fresh bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	e, ok := rc.entries[url]
	if !ok {
		return nil, "", false
	}
	return e.body, e.etag, !rc.now().After(e.expires)
}

// Put stores a body with the given etag and expiry.
func (rc *ResponseCache) Put(url string, body []byte, etag string, expires time.Time) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[url] = &cacheEntry{body: body, etag: etag, expires: expires}
}

// Touch updates the expiry of an existing entry (used on 304 Not Modified).
func (rc *ResponseCache) Touch(url string, expires time.Time) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if e, ok := rc.entries[url]; ok {
		e.expires = expires
	}
}

// NextExpiry returns the earliest expiry across all entries, or zero if empty.
func (rc *ResponseCache) NextExpiry() time.Time {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	var next time.Time
	for _, e := range rc.entries {
		if next.IsZero() || e.expires.Before(next) {
			next = e.expires
		}
	}
	return next
}

// Clear drops every entry and returns how many were removed.
func (rc *ResponseCache) Clear() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	n := len(rc.entries)
	rc.entries = make(map[string]*cacheEntry)
	return n
}

// getCached fetches url with full caching support:
//  1. fresh entry → decode from cache, no network I/O
//  2. expired entry with ETag → conditional request (If-None-Match)
//     - 304: touch expiry, decode cached body
//     - 200: replace the entry
//  3. miss → full fetch
//
// Concurrent calls for the same URL share one request.
func (c *Client) getCached(ctx context.Context, url string, dst interface{}) error {
	res, err, _ := c.cache.group.Do(url, func() (interface{}, error) {
		return c.fetchWithCache(ctx, url)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(res.([]byte), dst)
}

func (c *Client) fetchWithCache(ctx context.Context, url string) ([]byte, error) {
	cached, etag, fresh := c.cache.Get(url)
	if fresh {
		return cached, nil
	}

	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	if etag != "" && cached != nil {
		req.Header.Set("If-None-Match", etag)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	expires := parseExpires(resp, c.cache.now())
	switch resp.StatusCode {
	case http.StatusNotModified:
		c.cache.Touch(url, expires)
		logger.Info("ESI", fmt.Sprintf("304 %s (ETag match)", url))
		return cached, nil
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		c.cache.Put(url, body, resp.Header.Get("ETag"), expires)
		return body, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
	}
}

// parseExpires reads the Expires header from an ESI response.
// Falls back to a 5-minute TTL if the header is missing or unparseable.
func parseExpires(resp *http.Response, now time.Time) time.Time {
	if exp := resp.Header.Get("Expires"); exp != "" {
		if t, err := time.Parse(time.RFC1123, exp); err == nil {
			return t
		}
	}
	return now.Add(5 * time.Minute)
}
