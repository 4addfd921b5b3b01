// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package statusclient talks to the extraction server: it opens the filter
// page, submits the execute form and fetches progress reports.
package statusclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/metrics"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
	"github.com/matt-FFFFFF/tracewatch/internal/teereader"
)

const (
	// DefaultStatusPath is the status endpoint of the extraction view.
	DefaultStatusPath = "/extraction/filter/"
	// ModulesField is the form field listing the optional modules to run.
	ModulesField = "modules_optional"

	ajaxHeader = "X-Requested-With"
	ajaxValue  = "XMLHttpRequest"
	maxBody    = 1 << 20

	// snippetLength bounds the response text quoted in errors.
	snippetLength = 120
)

var (
	// ErrInvalidServer is returned when the server URL cannot be used.
	ErrInvalidServer = errors.New("invalid server URL")
	// ErrRequest is returned when a request cannot be sent or read.
	ErrRequest = errors.New("status request failed")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Client fetches progress reports from one server. It keeps a cookie jar so
// that the session established by Open is reused by Execute and Fetch.
type Client struct {
	http     *http.Client
	endpoint *url.URL
}

// Option configures a Client.
type Option func(*Client)

// WithStatusPath overrides DefaultStatusPath.
func WithStatusPath(p string) Option {
	return func(c *Client) {
		c.endpoint.Path = p
	}
}

// WithRequestTimeout bounds every request. Zero means no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added if
// the client has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h.Jar == nil {
			h.Jar = c.http.Jar
		}

		c.http = h
	}
}

// New creates a client for the server at base, e.g. http://localhost:8000.
func New(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Join(ErrInvalidServer, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https: %q", ErrInvalidServer, base)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host: %q", ErrInvalidServer, base)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Join(ErrInvalidServer, err)
	}

	h := cleanhttp.DefaultPooledClient()
	h.Jar = jar

	endpoint := *u
	endpoint.Path = DefaultStatusPath
	endpoint.RawQuery = ""

	c := &Client{
		http:     h,
		endpoint: &endpoint,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the status URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// ResolvePath returns p relative to the server root.
func (c *Client) ResolvePath(p string) string {
	u := *c.endpoint
	u.Path = p

	return u.String()
}

// Open loads the filter page like a browser would. On the extraction server
// this establishes the session and resets its progress to zero.
func (c *Client) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return errors.Join(ErrRequest, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}

	return drain(resp)
}

// Execute submits the extraction form with the chosen optional modules.
func (c *Client) Execute(ctx context.Context, modules []string) error {
	form := url.Values{}
	for _, m := range modules {
		form.Add(ModulesField, m)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Join(ErrRequest, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return err
	}

	ctxlog.Debug(ctx, "extraction submitted", "modules", modules, "status", resp.StatusCode)

	return drain(resp)
}

// Fetch performs a single status poll.
func (c *Client) Fetch(ctx context.Context) (report.Report, error) {
	start := time.Now()

	rep, err := c.fetch(ctx)
	if err != nil {
		metrics.ObservePoll(metrics.OutcomeError, time.Since(start))
		return report.Report{}, err
	}

	metrics.ObservePoll(metrics.OutcomeOK, time.Since(start))
	metrics.SetProgress(rep.Value())

	return rep, nil
}

func (c *Client) fetch(ctx context.Context) (report.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return report.Report{}, errors.Join(ErrRequest, err)
	}

	req.Header.Set(ajaxHeader, ajaxValue)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return report.Report{}, err
	}

	defer resp.Body.Close() //nolint:errcheck

	body := teereader.New(io.LimitReader(resp.Body, maxBody))

	rep, err := report.Decode(body)
	if err != nil {
		_, _ = io.Copy(io.Discard, body)

		return report.Report{}, fmt.Errorf("%w (response: %q)", err, body.LastLine(snippetLength))
	}

	return rep, nil
}

// do sends req and turns non-2xx responses into errors.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := teereader.New(io.LimitReader(resp.Body, maxBody))
		_, _ = io.Copy(io.Discard, body)
		_ = resp.Body.Close()

		err := fmt.Errorf("%w: %s %s: %s", ErrUnexpectedStatus, req.Method, req.URL.Path, resp.Status)
		if line := body.LastLine(snippetLength); line != "" {
			err = fmt.Errorf("%w: %s", err, line)
		}

		return nil, err
	}

	return resp, nil
}

func drain(resp *http.Response) error {
	defer resp.Body.Close() //nolint:errcheck

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody)); err != nil {
		return errors.Join(ErrRequest, err)
	}

	return nil
}
