// Package fetch retrieves raw playback-log pages from the source site. It
// returns bytes untouched; decoding and repair happen downstream.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps http.Client with the source's request conventions and bounded
// retry with increasing delays between attempts.
type Client struct {
	HTTPClient *http.Client
	// BaseURL is the playback-log search endpoint.
	BaseURL   string
	UserAgent string
	// AcceptLanguage is sent as-is; the source serves localized markup.
	AcceptLanguage string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// RetryDelay is the base delay; attempt i sleeps (i+1)*RetryDelay before
	// the next try.
	RetryDelay time.Duration
	// InsecureSkipVerify disables TLS verification. The source's certificate
	// chain has been broken for stretches at a time.
	InsecureSkipVerify bool
}

// Get retrieves one result page. daysAgo is omitted from the query entirely
// when zero so the source serves the current day. The returned error wraps
// the last failure observed across all attempts.
func (c *Client) Get(ctx context.Context, page, daysAgo int) ([]byte, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, err := c.tryOnce(ctx, page, daysAgo)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		delay := time.Duration(i+1) * c.retryDelay()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch page %d (dt=%d): %w", page, daysAgo, lastErr)
}

func (c *Client) tryOnce(ctx context.Context, page, daysAgo int) ([]byte, error) {
	target, err := c.pageURL(page, daysAgo)
	if err != nil {
		return nil, err
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.AcceptLanguage)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty response body")
	}
	return b, nil
}

func (c *Client) pageURL(page, daysAgo int) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("base url: %w", err)
	}
	q := u.Query()
	q.Set("p", strconv.Itoa(page))
	if daysAgo > 0 {
		q.Set("dt", strconv.Itoa(daysAgo))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	hc := &http.Client{Timeout: c.PerRequestTimeout}
	if c.InsecureSkipVerify {
		hc.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return hc
}

func (c *Client) retryDelay() time.Duration {
	if c.RetryDelay > 0 {
		return c.RetryDelay
	}
	return 1500 * time.Millisecond
}
