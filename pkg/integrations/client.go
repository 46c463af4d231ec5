package integrations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/cache"
	"github.com/matzehuels/blastradius/pkg/httputil"
)

// Client provides shared HTTP functionality for all upstream API clients.
// It handles caching and delegates retry and rate-limit policy to
// [httputil.Client].
type Client struct {
	http      *httputil.Client
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	logger    *log.Logger
}

// NewClient creates a Client. A nil cache disables caching; a nil logger
// uses log.Default().
func NewClient(fetcher *httputil.Client, c cache.Cache, namespace string, ttl time.Duration, logger *log.Logger) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		http:      fetcher,
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

// Cached decodes the entry for name into v, or runs fetch and stores the JSON
// encoding of v. If refresh is true the cache is not read. Cache failures are
// logged and never fail the call.
func (c *Client) Cached(ctx context.Context, name string, refresh bool, v any, fetch func() error) error {
	key := cache.Key(c.namespace, name)
	if !refresh {
		data, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Debug("cache read failed", "key", key, "err", err)
		}
		if ok && json.Unmarshal(data, v) == nil {
			return nil
		}
	}
	if err := fetch(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = c.cache.Set(ctx, key, data, c.ttl)
	}
	if err != nil {
		c.logger.Debug("cache write failed", "key", key, "err", err)
	}
	return nil
}

// GetJSON fetches url and JSON-decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any, opts ...httputil.RequestOption) error {
	return c.http.FetchJSON(ctx, url, v, opts...)
}

// GetRaw fetches url and returns the undecoded body, for endpoints whose
// response shape varies.
func (c *Client) GetRaw(ctx context.Context, url string, opts ...httputil.RequestOption) ([]byte, error) {
	return c.http.Fetch(ctx, url, opts...)
}

// GetText fetches url as text. It returns "" once retries are exhausted.
func (c *Client) GetText(ctx context.Context, url string, opts ...httputil.RequestOption) string {
	return c.http.FetchText(ctx, url, opts...)
}
