// Package fetch is the HTTP collaborator used to download galleys and
// scrape landing pages from a bepress site.
package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

const (
	defaultUserAgent   = "bepress-migrate/dev"
	defaultHTTPTimeout = 60 * time.Second
	defaultMaxBody     = 512 << 20
)

// ErrStatus reports a response outside the 2xx range.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError carries the URL and status code of a failed fetch.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a *StatusError for non-2xx responses.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{URL: r.URL, Code: r.StatusCode}
}

// ContentType returns the lower-cased media type without parameters.
func (r *Response) ContentType() string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// Filename returns the filename advertised by the Content-Disposition
// header, or "" when there is none.
func (r *Response) Filename() string {
	return FilenameFromHeader(r.Header)
}

// FilenameFromHeader extracts the Content-Disposition filename parameter.
// Directory components are stripped.
func FilenameFromHeader(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Config describes the client configuration.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxBody    int64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs GET and HEAD requests with a fixed User-Agent and timeout.
type Client struct {
	http      *http.Client
	relaxed   *http.Client
	userAgent string
	maxBody   int64
	logger    *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) *Client {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // relation links point at hosts with broken certificates
	relaxed := &http.Client{Timeout: timeout, Transport: transport}

	return &Client{
		http:      client,
		relaxed:   relaxed,
		userAgent: userAgent,
		maxBody:   maxBody,
		logger:    logger.With("component", "fetch"),
	}
}

// Get downloads url. Any status code yields a Response; only transport
// failures are returned as errors.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, c.http, http.MethodGet, url)
}

// Head issues a HEAD request for url.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, c.http, http.MethodHead, url)
}

// GetRelaxed downloads url without verifying the server certificate. If the
// TLS handshake still fails the request is retried once over plain http.
func (c *Client) GetRelaxed(ctx context.Context, url string) (*Response, error) {
	resp, err := c.do(ctx, c.relaxed, http.MethodGet, url)
	if err == nil || !isTLSError(err) || !strings.HasPrefix(url, "https://") {
		return resp, err
	}
	plain := "http://" + strings.TrimPrefix(url, "https://")
	c.logger.Warn("TLS failure, retrying over http", "url", url, "error", err)
	return c.do(ctx, c.relaxed, http.MethodGet, plain)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	var body []byte
	if method != http.MethodHead {
		body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", url, err)
		}
	}

	c.logger.Debug("fetched", "method", method, "url", url, "status", resp.StatusCode, "bytes", len(body))
	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func isTLSError(err error) bool {
	var (
		recordErr *tls.RecordHeaderError
		certErr   *tls.CertificateVerificationError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
	)
	switch {
	case errors.As(err, &recordErr), errors.As(err, &certErr),
		errors.As(err, &authErr), errors.As(err, &hostErr):
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "HTTP response to HTTPS client")
}
