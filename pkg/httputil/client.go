package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/buildinfo"
	"github.com/matzehuels/blastradius/pkg/observability"
)

// Options configures a [Client]. Zero values fall back to the defaults noted
// on each field.
type Options struct {
	Retries          int           // retries after the first attempt; negative means 0
	Timeout          time.Duration // per attempt (default 30s)
	BackoffUnit      time.Duration // linear backoff unit (default 1s)
	MaxRateLimitWait time.Duration // cap for 429 waits (default 60s)
	UserAgent        string        // default "blastradius/<version>"

	// AuthBase and Token attach "Authorization: Bearer <Token>" to requests
	// whose URL starts with AuthBase. Both must be set.
	AuthBase string
	Token    string

	HTTPClient *http.Client
	Logger     *log.Logger

	// Sleep replaces the context-aware sleep used for backoff and 429 waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client is the resilient fetch client. It is safe for concurrent use.
type Client struct {
	opts   Options
	http   *http.Client
	logger *log.Logger
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.MaxRateLimitWait <= 0 {
		opts.MaxRateLimitWait = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "blastradius/" + buildinfo.Version
	}
	c := &Client{
		opts:   opts,
		http:   opts.HTTPClient,
		logger: opts.Logger,
		sleep:  opts.Sleep,
		now:    time.Now,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

type request struct {
	method  string
	headers map[string]string
	retries int
	timeout time.Duration
}

// RequestOption adjusts a single request.
type RequestOption func(*request)

// WithMethod overrides the HTTP method (default GET).
func WithMethod(m string) RequestOption { return func(r *request) { r.method = m } }

// WithHeader adds a request header. It cannot override User-Agent.
func WithHeader(k, v string) RequestOption {
	return func(r *request) { r.headers[k] = v }
}

// WithRetries overrides the client's retry budget for one request.
func WithRetries(n int) RequestOption { return func(r *request) { r.retries = max(n, 0) } }

// WithTimeout overrides the per-attempt timeout for one request.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *request) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Fetch issues the request and returns the body of the first 2xx response.
// It returns ctx.Err() as soon as ctx is cancelled and a [*FetchError] once
// the retry budget is spent.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts ...RequestOption) ([]byte, error) {
	req := request{
		method:  http.MethodGet,
		headers: map[string]string{},
		retries: c.opts.Retries,
		timeout: c.opts.Timeout,
	}
	for _, o := range opts {
		o(&req)
	}

	host, path := splitURL(rawURL)
	attempts := req.retries + 1
	var (
		lastErr    error
		lastCode   int
		lastStatus string
	)

	for attempt := 1; attempt <= attempts; {
		body, code, status, retryAfter, err := c.attempt(ctx, rawURL, host, path, req)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if code == http.StatusTooManyRequests {
			// Same attempt again; the counter only advances on other outcomes.
			for n := 0; code == http.StatusTooManyRequests; n++ {
				wait := rateLimitWait(retryAfter, n, c.opts.BackoffUnit, c.opts.MaxRateLimitWait, c.now())
				observability.HTTP().OnRateLimited(ctx, host, path, wait)
				c.logger.Warn("rate limited", "host", host, "wait", wait)
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
				body, code, status, retryAfter, err = c.attempt(ctx, rawURL, host, path, req)
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
			}
		}

		if err == nil && code >= 200 && code < 300 {
			return body, nil
		}

		lastCode, lastStatus = code, status
		if err != nil {
			lastErr = err
		} else {
			lastErr = statusError(code)
		}

		if attempt == attempts {
			break
		}
		delay := linearBackoff(attempt, c.opts.BackoffUnit)
		c.logger.Debug("retrying request", "url", RedactURL(rawURL), "attempt", attempt, "status", code, "err", err, "backoff", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		attempt++
	}

	return nil, &FetchError{
		URL:        RedactURL(rawURL),
		Method:     req.method,
		StatusCode: lastCode,
		Status:     lastStatus,
		Attempts:   attempts,
		Err:        lastErr,
	}
}

// attempt performs one bounded request. The per-attempt timeout covers the
// body read.
func (c *Client) attempt(ctx context.Context, rawURL, host, path string, r request) (body []byte, code int, status, retryAfter string, err error) {
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(actx, r.method, rawURL, nil)
	if err != nil {
		return nil, 0, "", "", err
	}
	for k, v := range r.headers {
		hreq.Header.Set(k, v)
	}
	hreq.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" && c.opts.AuthBase != "" && strings.HasPrefix(rawURL, c.opts.AuthBase) {
		hreq.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, r.method, host, path)
	resp, err := c.http.Do(hreq)
	if err != nil {
		observability.HTTP().OnError(ctx, r.method, host, path, err)
		return nil, 0, "", "", err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	observability.HTTP().OnResponse(ctx, r.method, host, path, resp.StatusCode, time.Since(start))
	if err != nil {
		observability.HTTP().OnError(ctx, r.method, host, path, err)
		return nil, 0, "", "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, resp.Status, resp.Header.Get("Retry-After"), nil
}

// FetchJSON fetches rawURL and decodes the JSON body into v.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, v any, opts ...RequestOption) error {
	opts = append([]RequestOption{WithHeader("Accept", "application/json")}, opts...)
	body, err := c.Fetch(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", RedactURL(rawURL), err)
	}
	return nil
}

// FetchText fetches rawURL as text. Exhausted retries and cancellation both
// yield "".
func (c *Client) FetchText(ctx context.Context, rawURL string, opts ...RequestOption) string {
	body, err := c.Fetch(ctx, rawURL, opts...)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Debug("text fetch gave up", "url", RedactURL(rawURL), "err", err)
		}
		return ""
	}
	return string(body)
}

func splitURL(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}
