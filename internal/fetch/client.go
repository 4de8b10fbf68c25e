// Package fetch provides the shared HTTP transport used by source
// classification and content extraction. It applies a per-host rate limit so
// that concurrent source fetches stay polite to hosts serving several feeds.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "marketnews/1.0 (+https://github.com/feedhound/marketnews)"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

type Client struct {
	http      *http.Client
	userAgent string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		limiters:  make(map[string]*rate.Limiter),
		perHost:   rate.Every(time.Second),
		burst:     2,
	}
}

// Get issues a GET and returns the response for any 2xx status. The caller
// owns the body. Non-2xx responses are drained, closed and reported as a
// *StatusError.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.waitForHost(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	return resp, nil
}

func (c *Client) waitForHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid URL %q", rawURL)
	}

	c.mu.Lock()
	lim, ok := c.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(c.perHost, c.burst)
		c.limiters[u.Host] = lim
	}
	c.mu.Unlock()

	return lim.Wait(ctx)
}
