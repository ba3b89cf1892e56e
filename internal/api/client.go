// Package api is the JSON client for the backend REST API. All collaborator
// calls — the login credential exchange and the course/chapter/lesson CRUD —
// go through the same adapter so transport and structured-error handling stay
// uniform.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/coursedesk/console/internal/telemetry"
)

// acceptHeader asks the backend for its structured JSON-LD error/content
// format, so failures carry a machine-readable detail field.
const acceptHeader = "application/ld+json"

const (
	// ContentTypeLD is the media type for create payloads.
	ContentTypeLD = "application/ld+json"
	// ContentTypeMergePatch is the media type for partial updates.
	ContentTypeMergePatch = "application/merge-patch+json"
)

// RequestError reports a non-success HTTP status from the backend. Message is
// the backend's own description when one was parseable, otherwise
// "HTTP <status>".
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// DecodeError reports a success response whose body could not be decoded into
// the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Client issues JSON requests against a single backend base URL.
type Client struct {
	base       string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCaching swaps in an in-memory caching transport so repeated GETs (e.g.
// course listings with Cache-Control headers) are served locally.
func WithCaching() Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
		}
	}
}

// New creates a client for the given base URL, e.g. "http://localhost:8000".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimSuffix(base, "/"),
		// TODO: add an explicit timeout once the backend publishes its SLO;
		// an unbounded hang currently blocks the calling request.
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// RequestOptions carries the optional parts of a request.
type RequestOptions struct {
	// Body is JSON-encoded when non-nil. ContentType defaults to
	// "application/json" for requests carrying a body.
	Body        any
	ContentType string

	// Header entries are merged over the defaults without dropping them.
	Header http.Header

	// Cookies are forwarded to the backend, so calls made on behalf of a
	// browser request carry its credentials.
	Cookies []*http.Cookie
}

// Request performs a JSON round trip and decodes the response body into T.
//
// A non-2xx status yields a *RequestError carrying the backend's detail
// message when present. A 204 returns the zero T without touching the body.
// A success body that fails to decode yields a *DecodeError.
func Request[T any](ctx context.Context, c *Client, method, path string, opts *RequestOptions) (T, error) {
	var zero T
	if opts == nil {
		opts = &RequestOptions{}
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return zero, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	if opts.Body != nil {
		contentType := opts.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	telemetry.GetMetrics().APIRequestDuration.Record(ctx, float64(time.Since(started).Milliseconds()))
	if err != nil {
		telemetry.GetMetrics().APIRequestErrorsTotal.Add(ctx, 1)
		return zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		telemetry.GetMetrics().APIRequestErrorsTotal.Add(ctx, 1)
		return zero, &RequestError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	// 204 carries no body; decoding it would itself be an error
	if resp.StatusCode == http.StatusNoContent {
		return zero, nil
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, &DecodeError{Err: err}
	}

	return out, nil
}

// errorMessage extracts the backend's structured error description, falling
// back to a generic "HTTP <status>" when the body is not parseable.
func errorMessage(resp *http.Response) string {
	msg := fmt.Sprintf("HTTP %d", resp.StatusCode)

	var body struct {
		Detail      string `json:"detail"`
		Description string `json:"hydra:description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return msg
	}

	if body.Detail != "" {
		return body.Detail
	}
	if body.Description != "" {
		return body.Description
	}
	return msg
}
