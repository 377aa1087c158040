// Package api is a small JSON-over-HTTP client shared by the data
// collectors. It wraps net/http with default headers, request logging, and
// exponential-backoff retries.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"market-event-monitor/internal/logger"
)

type Client struct {
	httpClient *http.Client
	headers    map[string]string
	useLogging bool
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

func WithLogging(enabled bool) ClientOption {
	return func(c *Client) { c.useLogging = enabled }
}

// WithProxy routes all requests through the given proxy URL. An unparseable
// URL is ignored.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		if proxyURL == "" {
			return
		}
		u, err := url.Parse(proxyURL)
		if err != nil {
			return
		}
		c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// GET executes one GET request. Per-call headers override the client
// defaults. Status codes of 400 and above are returned as errors.
func (c *Client) GET(ctx context.Context, u string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if c.useLogging {
		logger.Debug(ctx, "HTTP response",
			"url", u,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"body_size", len(body),
		)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body, Headers: resp.Header}, nil
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: 1 * time.Second, MaxWait: 5 * time.Second}
}

// GETWithRetry retries GET with exponential backoff. Context cancellation
// aborts the wait between attempts.
func (c *Client) GETWithRetry(ctx context.Context, u string, headers map[string]string, cfg RetryConfig) (*Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	wait := cfg.InitialWait
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		resp, err := c.GET(ctx, u, headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if c.useLogging {
			logger.Warn(ctx, "Request failed, retrying",
				"url", u, "attempt", attempt, "error", err)
		}
		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
			if wait > cfg.MaxWait {
				wait = cfg.MaxWait
			}
		}
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// YahooFinanceHeaders mimics a browser hitting the Yahoo Finance API.
func YahooFinanceHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}
}
