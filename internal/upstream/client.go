// Package upstream is the HTTP client for the REST API that owns every
// business record. All calls resolve against one configured base URL,
// exchange JSON and expect the envelope {success, data, message}.
//
// Calls are never retried: a failure is reported once to the caller.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/internal/logger"
)

const maxBodyBytes = 10 << 20

// Envelope is the response convention of the upstream API.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Observer is told about every completed call. status is 0 when the
// upstream could not be reached.
type Observer func(method, path string, status int, elapsed time.Duration)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	observe    Observer
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver registers fn to be called after every call.
func WithObserver(fn Observer) Option {
	return func(c *Client) { c.observe = fn }
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("upstream: base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream: invalid base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("upstream: base URL %q is not absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    u,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Request describes one upstream call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is the part of an upstream reply callers may need beyond the
// decoded data.
type Response struct {
	Status  int
	Message string
	Cookies []*http.Cookie
}

// Do performs req with the credentials found in ctx and decodes the
// envelope's data into out, unless out is nil.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	target := c.resolve(req.Path, req.Query)

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("upstream: encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("upstream: building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	creds := CredentialsFrom(ctx)
	if creds.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	for _, ck := range creds.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	log := logger.FromContext(ctx).With(zap.String("method", req.Method), zap.String("upstream_path", req.Path))
	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.notify(req, 0, elapsed)
		log.Warn("upstream call failed", zap.Error(err), zap.Duration("latency", elapsed))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer httpResp.Body.Close()
	c.notify(req, httpResp.StatusCode, elapsed)
	log.Debug("upstream call", zap.Int("status", httpResp.StatusCode), zap.Duration("latency", elapsed))

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnreachable, err)
	}

	resp := &Response{Status: httpResp.StatusCode, Cookies: httpResp.Cookies()}

	var env Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)
	if decodeErr == nil {
		resp.Message = env.Message
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, &Error{Status: httpResp.StatusCode, Message: resp.Message}
	}
	if decodeErr != nil {
		return resp, fmt.Errorf("%w: %v", ErrInvalidResponse, decodeErr)
	}
	if !env.Success {
		return resp, &Error{Status: httpResp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp, fmt.Errorf("%w: decoding data: %v", ErrInvalidResponse, err)
		}
	}
	return resp, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) notify(req Request, status int, elapsed time.Duration) {
	if c.observe != nil {
		c.observe(req.Method, req.Path, status, elapsed)
	}
}

// Get fetches path and decodes its data as T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, &out)
	return out, err
}

// Send issues a request with a JSON body and decodes the data, if any, as T.
func Send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	_, err := c.Do(ctx, Request{Method: method, Path: path, Body: body}, &out)
	return out, err
}

// Expand substitutes {name} placeholders in pattern with escaped params.
// Unknown placeholders are left untouched.
func Expand(pattern string, params map[string]string) string {
	for k, v := range params {
		pattern = strings.ReplaceAll(pattern, "{"+k+"}", url.PathEscape(v))
	}
	return pattern
}
