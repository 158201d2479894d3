// Package httpcache provides an in-memory cache for GET responses so a
// resubmitted form does not re-hit the public APIs within the TTL.
package httpcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maypok86/otter/v2"
)

// Cache is an otter-backed response cache keyed by request URL. Entries live
// only in memory; nothing is written to disk.
type Cache struct {
	cache  *otter.Cache[string, []byte]
	logger *slog.Logger
}

// New creates a cache holding up to capacity responses for ttl each.
func New(capacity int, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	cache := otter.Must(&otter.Options[string, []byte]{
		MaximumSize:      capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](ttl),
	})
	return &Cache{cache: cache, logger: logger}
}

func cacheKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

// Get returns the cached body for url, if present.
func (c *Cache) Get(url string) ([]byte, bool) {
	data, found := c.cache.GetIfPresent(cacheKey(url))
	if !found {
		c.logger.Debug("cache miss", "url", url)
		return nil, false
	}
	return data, true
}

// Set stores a response body for url.
func (c *Cache) Set(url string, data []byte) {
	c.cache.Set(cacheKey(url), data)
	c.logger.Debug("cache set", "url", url, "size", len(data))
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps an HTTP client with response caching. Only successful GET
// responses are cached; everything else passes through.
type Client struct {
	cache      *Cache
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient creates a caching HTTP client.
func NewClient(cache *Cache, httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cache: cache, httpClient: httpClient, logger: logger}
}

// Do performs an HTTP request, serving repeat GETs from the cache.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.httpClient.Do(req)
	}

	url := req.URL.String()
	if data, found := c.cache.Get(url); found {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		return resp, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
		if err != nil {
			return nil, err
		}
		c.cache.Set(url, body)
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	return resp, nil
}
