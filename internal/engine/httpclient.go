package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes caps any single response body (watch pages are ~1-2 MB).
const maxBodyBytes = 6 * 1024 * 1024

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Client is an explicitly constructed HTTP client with a browser-like identity,
// request pacing and transport-level retries. Strategies receive it by value
// from the caller instead of reaching for shared session state.
type Client struct {
	http    *http.Client
	browser *BrowserClient // nil = GETs use http
	limiter *rate.Limiter  // nil = unpaced
	retry   RetryConfig
}

// NewClient wraps hc. rps <= 0 disables pacing.
func NewClient(hc *http.Client, rps float64, retry RetryConfig) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{http: hc, retry: retry}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// WithBrowser routes GET requests through bc (Chrome TLS fingerprint and,
// when configured, a rotating proxy pool). POSTs keep using net/http.
func (c *Client) WithBrowser(bc *BrowserClient) *Client {
	c.browser = bc
	return c
}

// BrowserHeaders returns Chrome-like request headers with a rotated desktop
// User-Agent. Accept-Encoding is left to net/http so gzip responses are
// decoded transparently.
func BrowserHeaders() map[string]string {
	h := ChromeHeaders()
	delete(h, "accept-encoding")
	h["accept-language"] = "en-US,en;q=0.9"
	h["user-agent"] = RandomUserAgent()
	return h
}

// Get fetches url and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if c.browser != nil {
		return c.browserGet(ctx, url, headers)
	}
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

// PostJSON marshals payload, POSTs it and returns the body of a 2xx response.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	h["content-type"] = "application/json"
	return c.do(ctx, http.MethodPost, url, body, h)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) browserGet(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	IncrFetchRequests()
	data, err := RetryDo(ctx, c.retry, func() ([]byte, error) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		data, _, status, err := c.browser.Do(http.MethodGet, url, headers, nil)
		if err != nil {
			return nil, err
		}
		if status < 200 || status > 299 {
			return nil, &StatusError{URL: url, StatusCode: status}
		}
		return data, nil
	})
	if err != nil {
		IncrFetchErrors()
		return nil, err
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	IncrFetchRequests()
	resp, err := RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return c.http.Do(req)
	})
	if err != nil {
		IncrFetchErrors()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		IncrFetchErrors()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		IncrFetchErrors()
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
