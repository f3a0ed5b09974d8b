package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// Config holds client settings
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	RetryClientErrors bool
	UserAgent         string
}

// DefaultConfig returns the default client settings for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Timeout:       DefaultTimeout,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
	}
}

// TokenSource supplies the bearer token for outgoing requests
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Credentials are request-scoped credentials, usually forwarded from a browser
type Credentials struct {
	Token  string
	Cookie string
}

type credentialsKey struct{}

// WithCredentials attaches credentials to ctx. They take precedence over the TokenSource.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom returns the credentials attached to ctx
func CredentialsFrom(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok
}

// Request describes one logical backend call
type Request struct {
	Method string
	Path   string
	// Body is sent as is when it is a string or []byte, otherwise JSON-encoded
	Body   any
	Header http.Header
	Query  url.Values
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client, jar included
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithoutCookieJar drops the shared cookie jar. Clients that forward other
// callers' credentials use it so one caller's Set-Cookie never reaches another.
func WithoutCookieJar() Option {
	return func(c *Client) {
		c.noJar = true
	}
}

// WithTokenSource sets the bearer token source
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithSleeper replaces the wait between retries
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		c.sleep = s
	}
}

type requestOptions struct {
	timeout time.Duration
	policy  RetryPolicy
	header  http.Header
	query   url.Values
}

// RequestOption adjusts a single call
type RequestOption func(*requestOptions)

// WithTimeout overrides the per-attempt timeout
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.timeout = d
	}
}

// WithRetry overrides the retry count and base delay
func WithRetry(attempts int, delay time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.policy.Attempts = attempts
		o.policy.Delay = delay
	}
}

// WithHeader sets a request header
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// WithQuery adds a query parameter
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.query.Add(key, value)
	}
}

// Client sends requests to the REST backend with per-attempt timeouts, linear
// retry and error classification
type Client struct {
	config Config
	http   *http.Client
	tokens TokenSource
	sleep  Sleeper
	logger *zap.Logger
	noJar  bool
}

// New creates a client. Base URL problems are reported by Do, before any network attempt.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		config: cfg,
		http:   &http.Client{Jar: jar},
		sleep:  sleepContext,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.noJar && c.http.Jar != nil {
		hc := *c.http
		hc.Jar = nil
		c.http = &hc
	}
	return c
}

// Config returns the client settings
func (c *Client) Config() Config {
	return c.config
}

// Get sends a GET request
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path}, opts...)
}

// Post sends a POST request
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, opts...)
}

// Put sends a PUT request
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, opts...)
}

// Delete sends a DELETE request
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, opts...)
}

// Do sends req. Failures are returned as *APIError, except cancellation of ctx
// which is returned unchanged.
func (c *Client) Do(ctx context.Context, req Request, opts ...RequestOption) (*Result, error) {
	o := requestOptions{
		timeout: c.config.Timeout,
		policy: RetryPolicy{
			Attempts:          c.config.RetryAttempts,
			Delay:             c.config.RetryDelay,
			RetryClientErrors: c.config.RetryClientErrors,
		},
		header: make(http.Header),
		query:  make(url.Values),
	}
	for _, opt := range opts {
		opt(&o)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(req.Path, req.Query, o.query)
	if err != nil {
		c.logger.Error("Invalid request configuration", zap.String("path", req.Path), zap.Error(err))
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	header := c.buildHeader(req.Header, o.header, body != nil)

	result, attempts, err := retry(ctx, o.policy, c.sleep, c.logger,
		func(ctx context.Context, attempt int) (*Result, error) {
			return withTimeout(ctx, o.timeout, func(ctx context.Context) (*Result, error) {
				return c.attempt(ctx, method, target, header, body, attempt)
			})
		})
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok {
			apiErr.Attempts = attempts
		}
		c.logger.Error("Request failed",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return nil, err
	}

	return result, nil
}

func (c *Client) resolve(path string, queries ...url.Values) (string, error) {
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return "", configurationError("API base URL is not configured")
	}
	base, err := url.Parse(c.config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", configurationError("invalid API base URL %q", c.config.BaseURL)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", configurationError("invalid request path %q", path)
	}

	target := *base
	target.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")

	query := ref.Query()
	for _, q := range queries {
		for key, values := range q {
			for _, v := range values {
				query.Add(key, v)
			}
		}
	}
	target.RawQuery = query.Encode()

	return target.String(), nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &APIError{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("failed to encode request body: %v", err),
			Err:     err,
		}
	}
	return data, nil
}

func (c *Client) buildHeader(reqHeader, optHeader http.Header, hasBody bool) http.Header {
	header := make(http.Header)
	header.Set("Accept", "application/json, text/plain, */*")
	if c.config.UserAgent != "" {
		header.Set("User-Agent", c.config.UserAgent)
	}

	// per-call options win over the request's own headers
	for _, h := range []http.Header{reqHeader, optHeader} {
		for key, values := range h {
			header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}

	if hasBody && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	return header
}

func (c *Client) attempt(ctx context.Context, method, target string, header http.Header, body []byte, attempt int) (*Result, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, configurationError("failed to build request: %v", err)
	}
	req.Header = header.Clone()

	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	c.logger.Debug("Sending request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("attempt", attempt+1))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	result := &Result{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewStatusError(result, resp.Status)
	}
	return result, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if req.Header.Get("Authorization") != "" {
		return nil
	}

	creds, ok := CredentialsFrom(ctx)
	if ok && creds.Cookie != "" {
		req.Header.Add("Cookie", creds.Cookie)
	}

	token := creds.Token
	if token == "" && c.tokens != nil {
		var err error
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
