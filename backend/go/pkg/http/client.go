package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/pkg/circuitbreaker"
	"tiben-mcp/backend/go/pkg/logger"
	"tiben-mcp/backend/go/pkg/retry"
)

// RequestFunc builds a fresh request for every attempt, since a streamed body
// can only be sent once.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Client wraps http.Client with optional circuit breaking and retries.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
	retry      *retry.Options
	log        *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClientLogger sets the logger used for breaker transitions and retries.
func WithClientLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a Client from the backend and middleware sections of cfg.
func NewClient(cfg *config.AppConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{httpClient: &http.Client{}}

	if cfg.Backend.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Backend.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid backend timeout: %w", err)
		}
		c.httpClient.Timeout = timeout
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := c.createCircuitBreaker(cfg.Middleware.CircuitBreaker)
		if err != nil {
			return nil, err
		}
		c.breaker = breaker
	}

	if cfg.Middleware.Retry.Enabled {
		ropts, err := createRetryOptions(cfg.Middleware.Retry)
		if err != nil {
			return nil, err
		}
		c.retry = &ropts
	}

	return c, nil
}

// Do sends the request produced by build. Any HTTP status is returned as a
// response; only transport failures and an open circuit are errors.
// With retries enabled, transient failures and 429/503/504 are retried.
func (c *Client) Do(ctx context.Context, build RequestFunc) (*http.Response, error) {
	if c.retry == nil {
		return c.attempt(ctx, build)
	}

	opts := *c.retry
	opts.OnRetry = func(attempt int, delay time.Duration, err error) {
		if c.log != nil {
			c.log.Warn(fmt.Sprintf("Attempt %d failed, retrying in %s: %v", attempt, delay, err))
		}
	}

	var resp *http.Response
	err := retry.Do(ctx, opts, func() error {
		r, err := c.attempt(ctx, build)
		if err != nil {
			return err
		}
		resp = r
		statusErr := &retry.StatusError{StatusCode: r.StatusCode}
		if !opts.Retryable(statusErr) {
			return nil
		}
		// Keep the body readable in case this turns out to be the last attempt.
		body, readErr := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if readErr != nil {
			return readErr
		}
		return statusErr
	})

	var statusErr *retry.StatusError
	if err != nil && !(errors.As(err, &statusErr) && resp != nil) {
		return nil, err
	}
	return resp, nil
}

// attempt sends one request through the circuit breaker. Server errors (>= 500)
// count as breaker failures but are still handed back to the caller.
func (c *Client) attempt(ctx context.Context, build RequestFunc) (*http.Response, error) {
	if c.breaker == nil {
		return c.send(ctx, build)
	}

	var resp *http.Response
	err := c.breaker.Execute(func() error {
		r, err := c.send(ctx, build)
		if err != nil {
			return err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return &retry.StatusError{StatusCode: r.StatusCode}
		}
		return nil
	})
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

func (c *Client) send(ctx context.Context, build RequestFunc) (*http.Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// createCircuitBreaker initializes a circuit breaker based on the configuration.
func (c *Client) createCircuitBreaker(cfg config.CircuitBreakerConfig) (circuitbreaker.CircuitBreaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	var opts []circuitbreaker.Option
	if c.log != nil {
		opts = append(opts, circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
			c.log.Warn(fmt.Sprintf("circuit breaker %s -> %s", from, to))
		}))
	}
	return circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout, opts...), nil
}

func createRetryOptions(cfg config.RetryConfig) (retry.Options, error) {
	opts := retry.DefaultOptions()
	opts.MaxRetries = cfg.MaxRetries
	if cfg.Multiplier > 0 {
		opts.Multiplier = cfg.Multiplier
	}
	if cfg.InitialDelay != "" {
		d, err := time.ParseDuration(cfg.InitialDelay)
		if err != nil {
			return opts, fmt.Errorf("invalid retry initialDelay: %w", err)
		}
		opts.InitialDelay = d
	}
	if cfg.MaxDelay != "" {
		d, err := time.ParseDuration(cfg.MaxDelay)
		if err != nil {
			return opts, fmt.Errorf("invalid retry maxDelay: %w", err)
		}
		opts.MaxDelay = d
	}
	return opts, nil
}
