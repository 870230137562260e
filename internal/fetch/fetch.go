// Package fetch retrieves raw Markdown over HTTP from an allow-listed URL
// prefix.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md2codelab "github.com/alnah/go-md2codelab"
)

// Defaults.
const (
	DefaultAllowedPrefix = "https://raw.githubusercontent.com/panhyuan"
	DefaultUserAgent     = "Mozilla/5.0 (compatible; MarkdownCodelabsConverter/1.0)"
	DefaultTimeout       = 30 * time.Second
	MaxBodySize          = 5 << 20 // 5 MiB

	maxRedirects = 10
)

// Client fetches Markdown sources. Safe for concurrent use.
type Client struct {
	prefix    string
	userAgent string
	timeout   time.Duration
	http      *http.Client
}

var (
	_ md2codelab.Fetcher       = (*Client)(nil)
	_ md2codelab.PrefixChecker = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each fetch, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a Client that only fetches URLs starting with prefix.
// An empty prefix means DefaultAllowedPrefix.
func New(prefix string, opts ...Option) *Client {
	if prefix == "" {
		prefix = DefaultAllowedPrefix
	}
	c := &Client{
		prefix:    prefix,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		http:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.CheckRedirect == nil {
		hc := *c.http
		hc.CheckRedirect = c.checkRedirect
		c.http = &hc
	}
	return c
}

// checkRedirect keeps redirects inside the allowed prefix.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if target := req.URL.String(); !strings.HasPrefix(target, c.prefix) {
		return fmt.Errorf("%w: redirect to %s", md2codelab.ErrInvalidURLPrefix, target)
	}
	return nil
}

// Prefix returns the allowed URL prefix.
func (c *Client) Prefix() string {
	return c.prefix
}

// Fetch returns the body of url as text.
//
// Errors:
//   - md2codelab.ErrEmptyURL for a blank url
//   - md2codelab.ErrInvalidURLPrefix when url is outside the allowed prefix
//   - md2codelab.ErrFetchNotFound for HTTP 404
//   - md2codelab.ErrFetchFailed for any other status, transport error or
//     a body larger than MaxBodySize
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", md2codelab.ErrEmptyURL
	}
	if !strings.HasPrefix(url, c.prefix) {
		return "", fmt.Errorf("%w: %s", md2codelab.ErrInvalidURLPrefix, url)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", md2codelab.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.http.Do(req) // #nosec G107 -- url is checked against the allowed prefix
	if err != nil {
		return "", fmt.Errorf("%w: %w", md2codelab.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", md2codelab.ErrFetchNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("%w: HTTP %d", md2codelab.ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", md2codelab.ErrFetchFailed, err)
	}
	if len(body) > MaxBodySize {
		return "", fmt.Errorf("%w: body exceeds %d bytes", md2codelab.ErrFetchFailed, MaxBodySize)
	}

	return string(body), nil
}
