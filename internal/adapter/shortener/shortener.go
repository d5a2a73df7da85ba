// Package shortener talks to an external URL shortening provider.
package shortener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vadimbarashkov/qr-links/internal/entity"
)

const (
	// DefaultEndpoint is TinyURL's plain-text creation API.
	DefaultEndpoint = "https://tinyurl.com/api-create.php"
	DefaultTimeout  = 3 * time.Second
	MaxTimeout      = 5 * time.Second

	maxBodyBytes = 2048
)

// Client makes a single best-effort call per link. All failures wrap
// entity.ErrShortenerUnavailable so callers can fall back.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// New returns a client for endpoint. Timeouts outside (0, MaxTimeout] are replaced:
// zero or negative with DefaultTimeout, larger values with MaxTimeout.
func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	switch {
	case timeout <= 0:
		timeout = DefaultTimeout
	case timeout > MaxTimeout:
		timeout = MaxTimeout
	}

	c := &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	const op = "adapter.shortener.Client.Shorten"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%s: invalid endpoint: %w: %v", op, entity.ErrShortenerUnavailable, err)
	}

	q := endpoint.Query()
	q.Set("url", longURL)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: failed to build request: %w: %v", op, entity.ErrShortenerUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w: %v", op, entity.ErrShortenerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s: unexpected status %d: %w", op, resp.StatusCode, entity.ErrShortenerUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%s: failed to read body: %w: %v", op, entity.ErrShortenerUnavailable, err)
	}

	alias := strings.TrimSpace(string(body))
	if !isAbsoluteHTTPURL(alias) {
		return "", fmt.Errorf("%s: response is not a url: %w", op, entity.ErrShortenerUnavailable)
	}

	return alias, nil
}

func isAbsoluteHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NopClient returns its input unchanged. Used when no provider is configured.
type NopClient struct{}

func (NopClient) Shorten(_ context.Context, longURL string) (string, error) {
	return longURL, nil
}
