// Package client is a Go SDK for the booking API. The signed-in user is never kept
// inside a Client: every call takes the caller's Session explicitly, so one Client
// can serve many users at once.
package client

import (
	"bytes"
	"campusbook/shared/constant"
	"campusbook/shared/failure"
	"campusbook/transport/http/response"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiPrefix      = "/v1"
	defaultTimeout = 20 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock replaces the time source used by local date checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New returns a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// call performs req and decodes the data envelope of a successful answer into T.
func call[T any](ctx context.Context, c *Client, sess *Session, req request) (T, error) {
	var out response.Data[T]

	var zero T

	if err := c.do(ctx, sess, req, &out); err != nil {
		return zero, err
	}

	if out.Data == nil {
		return zero, nil
	}

	return *out.Data, nil
}

func (c *Client) do(ctx context.Context, sess *Session, req request, out any) error {
	var buf bytes.Buffer
	if req.body != nil {
		if err := json.NewEncoder(&buf).Encode(req.body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	target := c.baseURL + apiPrefix + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	if sess != nil && sess.AccessToken != constant.Empty {
		httpReq.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+sess.AccessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return failure.NetworkOrServer(0, err.Error()) // nolint:wrapcheck
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.NetworkOrServer(resp.StatusCode, fmt.Sprintf("failed to read response: %s", err)) // nolint:wrapcheck
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeFailure(resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return failure.NetworkOrServer(resp.StatusCode, fmt.Sprintf("unexpected response body: %s", err)) // nolint:wrapcheck
		}
	}

	return nil
}
