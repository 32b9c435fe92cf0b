package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Options configures Do. Zero values are replaced by the defaults from DefaultOptions.
type Options struct {
	MaxRetries   int           // Retries after the first attempt.
	InitialDelay time.Duration // Delay before the first retry.
	MaxDelay     time.Duration // Upper bound for a single delay.
	Multiplier   float64       // Growth factor applied after every retry.

	// Retryable decides whether err is worth another attempt. Defaults to IsRetryable.
	Retryable func(err error) bool
	// OnRetry is called before sleeping, with the 1-based number of the failed attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultOptions returns 3 retries starting at 1s, doubling up to 10s.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Retryable:    IsRetryable,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = def.InitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.Multiplier < 1 {
		o.Multiplier = def.Multiplier
	}
	if o.Retryable == nil {
		o.Retryable = def.Retryable
	}
	return o
}

// Do calls fn until it succeeds, returns a non-retryable error, the retries are
// exhausted or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, opts Options, fn func() error) error {
	opts = opts.withDefaults()
	delay := opts.InitialDelay

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= opts.MaxRetries || !opts.Retryable(err) {
			return err
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}

// StatusError reports an HTTP response status that a caller wants to treat as a failure.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

// IsRetryable reports whether err looks transient: connection resets, timeouts,
// HTTP 429/503/504, or a message mentioning a rate limit or timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "timeout")
}
