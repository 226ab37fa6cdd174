// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package lana implements a client for the LANA Process Mining REST API.
package lana

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/datawire/dlib/dlog"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultScheme   = "https"
	DefaultTimeZone = "Europe/Berlin"
	DefaultTimeout  = 5 * time.Minute
)

// Version is reported in the default User-Agent.  It is overridden at link time.
//
//nolint:gochecknoglobals // set by -ldflags
var Version = "(devel)"

// Config describes how to reach and authenticate against a LANA backend.
type Config struct {
	Scheme string
	Host   string
	Port   int

	// URL, if set, is used as-is as the base URL in compatibility mode.
	URL string

	Token  string
	APIKey string

	// Compatibility selects the legacy (v1) flavor of the API: the base URL may carry a path,
	// and the API key (if any) is preferred over the token.
	Compatibility bool

	InsecureSkipVerify bool

	// TimeZone is sent along with uploads; it tells the backend how to interpret timestamps.
	TimeZone string

	// RateLimit is the maximum number of requests per second; zero means unlimited.
	RateLimit rate.Limit
	RateBurst int

	Timeout   time.Duration
	UserAgent string

	// HTTPClient, if set, is used verbatim; InsecureSkipVerify, Timeout and TracerProvider are
	// then ignored.
	HTTPClient *http.Client

	TracerProvider trace.TracerProvider
	Registerer     prometheus.Registerer
}

// Client is a LANA API client.  It is safe for concurrent use.
type Client struct {
	baseURL   string
	authz     string
	timeZone  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	metrics   *clientMetrics

	userMu sync.Mutex
	user   *UserInfo
}

// New validates the configuration and builds a client.  It does not contact the backend.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no token", ErrInvalidConfig)
	}
	base, err := cfg.baseURL()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   base,
		authz:     cfg.authorization(),
		timeZone:  cfg.TimeZone,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
		metrics:   newClientMetrics(cfg.Registerer),
	}
	if c.timeZone == "" {
		c.timeZone = DefaultTimeZone
	}
	if c.userAgent == "" {
		c.userAgent = "golana/" + Version
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	if c.http == nil {
		c.http = cfg.newHTTPClient()
	}
	return c, nil
}

func (cfg Config) baseURL() (string, error) {
	if cfg.Compatibility && cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("%w: url: %v", ErrInvalidConfig, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return "", fmt.Errorf("%w: url %q is not absolute", ErrInvalidConfig, cfg.URL)
		}
		return strings.TrimRight(u.String(), "/"), nil
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("%w: no host", ErrInvalidConfig)
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, scheme)
	}
	u := url.URL{Scheme: scheme, Host: cfg.Host}
	if cfg.Port != 0 {
		u.Host += ":" + strconv.Itoa(cfg.Port)
	}
	return u.String(), nil
}

func (cfg Config) authorization() string {
	if cfg.Compatibility && cfg.APIKey != "" {
		return "API-Key " + cfg.APIKey
	}
	if cfg.Compatibility {
		return "Bearer " + cfg.Token
	}
	if cfg.Token == "" {
		return "API-Key " + cfg.APIKey
	}
	return "API-Key " + cfg.Token
}

func (cfg Config) newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // explicitly requested
		}
	}
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport, opts...),
		Timeout:   timeout,
	}
}

// Response is a successful (2xx) response from the backend.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON decodes the response body in to v.
func (r *Response) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

type request struct {
	method      string
	path        string // relative to the base URL, may carry a query
	body        io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, r request) (_ *Response, err error) {
	requestURL := c.baseURL + r.path
	defer func() {
		if err != nil {
			err = fmt.Errorf("%s %q => %w", r.method, requestURL, err)
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// 1. Build the request
	req, err := http.NewRequestWithContext(ctx, r.method, requestURL, r.body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authz)
	req.Header.Set("User-Agent", c.userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	// 2. Do the networking
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(r.method, 0, start)
		return nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, err
	}
	c.metrics.observe(r.method, resp.StatusCode, start)
	dlog.Debugf(ctx, "%s %s => %s (%d bytes, %v)",
		r.method, r.path, resp.Status, len(content), time.Since(start).Round(time.Millisecond))

	// 3. Validate the result
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp, content)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       content,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, request{method: http.MethodGet, path: path})
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := resp.DecodeJSON(v); err != nil {
		return fmt.Errorf("GET %q => %w", c.baseURL+path, err)
	}
	return nil
}

func (c *Client) delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, request{method: http.MethodDelete, path: path})
}
