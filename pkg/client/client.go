// Package client provides a resilient HTTP request client for REST APIs:
// default headers, pluggable auth, bounded retry with backoff on transient
// failures, and JSON/text/raw output selection.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/openbrewery-elt/pkg/cache"
	"github.com/Sternrassler/openbrewery-elt/pkg/keypath"
	"github.com/Sternrassler/openbrewery-elt/pkg/logging"
	"github.com/Sternrassler/openbrewery-elt/pkg/ratelimit"
	"github.com/rs/zerolog"
)

// Client issues requests against a single host over one reused
// http.Client. It is not safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	rateLimit  *ratelimit.Tracker
	config     Config
	policy     RetryPolicy
	sleep      Sleeper
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Host is the base URL, e.g. "https://api.openbrewerydb.org" (REQUIRED)
	Host string

	// Auth is applied to every request (optional)
	Auth Authenticator

	// Headers are sent with every request, e.g. Accept: application/json
	Headers map[string]string

	// Retry
	MaxRetries     int           // attempt ceiling, default 3
	BackoffFactor  float64       // delay multiplier, default 2
	InitialBackoff time.Duration // first retry delay, default 1s
	WaitTime       time.Duration // fixed delay overriding backoff (0 = off)

	// Timeout bounds each attempt at the transport level, default 30s
	Timeout time.Duration

	// Cache stores successful GET responses (optional)
	Cache *cache.Manager

	// RateLimit gates attempts on the quota the API reports (optional)
	RateLimit *ratelimit.Tracker

	// Logger defaults to a "http-client" component logger
	Logger *zerolog.Logger

	// HTTPClient replaces the default transport (optional, for testing)
	HTTPClient *http.Client

	// Sleep replaces the backoff sleeper (optional, for testing)
	Sleep Sleeper
}

// DefaultConfig returns a safe default configuration for host.
func DefaultConfig(host string) Config {
	return Config{
		Host:           host,
		Headers:        map[string]string{"Accept": "application/json"},
		MaxRetries:     3,
		BackoffFactor:  2,
		InitialBackoff: 1 * time.Second,
		Timeout:        30 * time.Second,
	}
}

// New creates a new request client.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 1 (got %d)", cfg.MaxRetries)
	}
	if cfg.BackoffFactor < 0 {
		return nil, fmt.Errorf("backoff_factor must be >= 0 (got %g)", cfg.BackoffFactor)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffFactor == 0 {
		cfg.BackoffFactor = 2
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")

	logger := logging.NewLogger("http-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Client{
		httpClient: httpClient,
		cache:      cfg.Cache,
		rateLimit:  cfg.RateLimit,
		config:     cfg,
		policy: RetryPolicy{
			MaxAttempts:    cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			BackoffFactor:  cfg.BackoffFactor,
			WaitTime:       cfg.WaitTime,
		},
		sleep:  sleep,
		logger: logger,
	}, nil
}

// URL returns the full URL for endpoint.
func (c *Client) URL(endpoint string) string {
	return JoinURL(c.config.Host, endpoint)
}

// Execute performs one logical request with retries and returns the
// selected output:
//
//   - OutputJSON: the decoded body narrowed by DataKeyPath. A body that is
//     not valid JSON, or a missing key path, yields nil without error.
//   - OutputText: the body as a string.
//   - OutputResponse: the *http.Response, body unread.
//
// Transport errors and 429 responses are retried up to MaxRetries
// attempts; exhaustion returns an error matching ErrRetryExhausted. Other
// 4xx/5xx responses return *HTTPError immediately.
func (c *Client) Execute(ctx context.Context, method, endpoint string, opts RequestOptions) (any, error) {
	output := opts.output()
	if !output.valid() {
		return nil, fmt.Errorf("%w '%s'", ErrUnsupportedOutput, output)
	}

	method = strings.ToUpper(method)
	rawURL := c.URL(endpoint)
	logger := c.logger.With().Str("method", method).Str("url", rawURL).Logger()

	var resp *http.Response
	err := retryWithBackoff(ctx, c.policy, c.sleep, logger, func(attempt int) (ErrorClass, error) {
		logger.Debug().Int("attempt", attempt).Msg("Executing request")

		if c.rateLimit != nil {
			if err := c.rateLimit.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return "", fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
				}
				logger.Warn().Err(err).Msg("Rate limit check failed")
			}
		}

		req, err := c.newRequest(ctx, method, rawURL, opts)
		if err != nil {
			return "", err
		}

		r, err := c.send(ctx, req)
		if err != nil {
			return ErrorClassNetwork, err
		}

		class := classifyStatus(r.StatusCode)
		if class == "" {
			resp = r
			return "", nil
		}

		body, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		r.Body.Close()

		logger.Warn().
			Int("status", r.StatusCode).
			Str("error_class", string(class)).
			Msg("Request error")

		return class, &HTTPError{
			Method:     method,
			URL:        rawURL,
			StatusCode: r.StatusCode,
			Status:     r.Status,
			ErrorClass: class,
			Body:       string(body),
		}
	})
	if err != nil {
		return nil, err
	}

	if output == OutputResponse {
		return resp, nil
	}
	return c.extract(resp, output, opts.DataKeyPath, logger)
}

// send issues a single attempt, consulting the response cache for GETs.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	method := req.Method
	useCache := c.cache != nil && method == http.MethodGet
	var key cache.CacheKey
	if useCache {
		key = cache.KeyForRequest(req)
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("key", key.String()).Msg("Cache hit")
			httpRequestsTotal.WithLabelValues(method, "cache_hit").Inc()
			return cache.EntryToResponse(entry, req), nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	httpRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Debug().Err(err).Str("url", req.URL.String()).Msg("HTTP request failed")
		httpRequestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, err
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if c.rateLimit != nil {
		if err := c.rateLimit.UpdateFromHeaders(ctx, resp.Header, resp.StatusCode); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit state")
		}
	}

	if useCache && cache.Cacheable(resp) {
		entry, err := cache.ResponseToEntry(resp, c.cache.DefaultTTL())
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// extract reads and formats a successful response body.
func (c *Client) extract(resp *http.Response, output OutputType, dataKeyPath string, logger zerolog.Logger) (any, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if output == OutputText {
		return string(body), nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		jsonDecodeErrorsTotal.Inc()
		logger.Error().Err(err).Msg("JSON decode failed")
		return nil, nil
	}
	return keypath.Lookup(decoded, dataKeyPath), nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	return c.Execute(ctx, http.MethodGet, endpoint, opts)
}

// Post performs a POST request; the payload goes in opts.JSON or opts.Form.
func (c *Client) Post(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	return c.Execute(ctx, http.MethodPost, endpoint, opts)
}

// Put performs a PUT request; the payload goes in opts.JSON or opts.Form.
func (c *Client) Put(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	return c.Execute(ctx, http.MethodPut, endpoint, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	return c.Execute(ctx, http.MethodDelete, endpoint, opts)
}

// Run dispatches to the verb named by method (case-insensitive).
func (c *Client) Run(ctx context.Context, endpoint, method string, opts RequestOptions) (any, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return c.Get(ctx, endpoint, opts)
	case http.MethodPost:
		return c.Post(ctx, endpoint, opts)
	case http.MethodPut:
		return c.Put(ctx, endpoint, opts)
	case http.MethodDelete:
		return c.Delete(ctx, endpoint, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, strings.ToUpper(method))
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
