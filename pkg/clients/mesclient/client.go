package mesclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries a per-request correlation ID
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 15 * time.Second
)

// TokenProvider supplies the bearer token for outgoing requests.
// An empty token means the request is sent without an Authorization header.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token
type StaticToken string

// Token implements TokenProvider
func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenProvider
	Logger  *zap.Logger
}

// Client talks JSON over HTTP to the MES backend
type Client struct {
	http   *resty.Client
	tokens TokenProvider
	logger *zap.Logger
}

// NewClient creates a client bound to a single base URL.
// Failed requests are not retried.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	c := &Client{
		http:   httpClient,
		tokens: opts.Tokens,
		logger: logger,
	}

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader(RequestIDHeader, uuid.New().String())
		return nil
	})
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.logger.Debug("MES API response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.String("request_id", resp.Request.Header.Get(RequestIDHeader)),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()))
		return nil
	})

	return c, nil
}

// BaseURL returns the resolved base URL
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// request builds a request carrying the caller's context and, when available, the bearer token
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx)
	if c.tokens == nil {
		return req, nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth token: %w", err)
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	return req, nil
}

// check converts transport failures and non-2xx responses into typed errors
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		// An aborted caller is not a network failure
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Warn("MES API request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	if resp.IsError() {
		apiErr := newAPIError(resp.StatusCode(), resp.Body())
		c.logger.Warn("MES API returned error",
			zap.String("op", op),
			zap.Int("status", apiErr.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}
	return nil
}
