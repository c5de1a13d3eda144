// Package client provides the outbound HTTP client bound to an upstream base URL.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jph-proxy-go/internal/config"
	"jph-proxy-go/internal/metrics"
	"jph-proxy-go/internal/model"
)

const userAgent = "jph-proxy-go/1.0"

// TransportError is returned when an upstream call produced no response at all:
// DNS failure, refused connection, timeout, canceled context or a broken body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client sends requests to one upstream base URL. It is safe for concurrent use
// and is never mutated after construction.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates a Client for the primary upstream configured in cfg.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	u, err := parseBaseURL(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		baseURL: u,
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}, nil
}

// WithBaseURL returns a Client bound to another base URL that shares this
// client's transport, logger and metrics.
func (c *Client) WithBaseURL(base string) (*Client, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}
	clone := *c
	clone.baseURL = u
	return &clone, nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get issues a GET for path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*model.UpstreamResponse, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST of the JSON body for path relative to the base URL.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*model.UpstreamResponse, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Do executes one upstream request and reads the whole response body.
// A non-2xx status is not an error; only a call that yields no response
// returns a *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*model.UpstreamResponse, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, &TransportError{Method: method, URL: path, Err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("build upstream request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.beforeSend(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(req, 0, time.Since(start))
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	c.observe(req, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("read upstream body: %w", err)}
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// beforeSend runs once for every outbound request.
func (c *Client) beforeSend(req *http.Request) {
	c.logger.Info("sending request",
		"method", req.Method,
		"url", req.URL.String(),
	)
}

// observe records upstream metrics. A zero status means no response was received.
func (c *Client) observe(req *http.Request, status int, d time.Duration) {
	if c.metrics == nil {
		return
	}
	upstream := req.URL.Host
	method := metrics.NormalizeMethod(req.Method)

	c.metrics.UpstreamDuration.WithLabelValues(upstream, method).Observe(d.Seconds())
	if status == 0 {
		c.metrics.UpstreamFailures.WithLabelValues(upstream, method).Inc()
		return
	}
	c.metrics.UpstreamResponses.WithLabelValues(upstream, method, strconv.Itoa(status)).Inc()
}

// resolve joins path onto the base URL. An absolute URL is returned unchanged.
func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base := strings.TrimSuffix(c.baseURL.String(), "/")
	return base + "/" + strings.TrimPrefix(path, "/"), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	return u, nil
}
