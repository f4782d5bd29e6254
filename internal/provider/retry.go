package provider

import (
	"context"
	"errors"
	"net"
	"time"
)

// RetryConfig controls retry behavior for transient provider failures.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries).
	MaxRetries int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
	// Multiplier is the exponential backoff growth factor.
	Multiplier float64
}

// DefaultRetryConfig returns a sensible default for provider HTTP calls.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2.0,
	}
}

// isRetryableError reports whether a network-level error is worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsNotFound
	}
	return false
}

// isRetryableStatusCode reports whether an HTTP status is worth retrying:
// 5xx server errors and 429 rate limiting.
func isRetryableStatusCode(code int) bool {
	return code >= 500 || code == 429
}

// retryableError wraps a *Error with a retryability verdict so
// ExecuteWithRetry can decide without re-deriving it from the status code.
type retryableError struct {
	err       *Error
	retryable bool
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// classifyHTTPError builds a retryable-tagged *Error from an HTTP status and
// body, per §7's error mapping: 401 -> Auth, 429 -> RateLimit, else ->
// Provider.
func classifyHTTPError(provider string, status int, body string) *retryableError {
	switch status {
	case 401:
		return &retryableError{err: AuthError(body), retryable: false}
	case 429:
		return &retryableError{err: RateLimitError(body), retryable: true}
	default:
		return &retryableError{err: ProviderError(provider, body), retryable: isRetryableStatusCode(status)}
	}
}

// ExecuteWithRetry runs fn, retrying on errors classified as retryable (by
// classifyHTTPError or a transient network error) with exponential backoff,
// honoring ctx cancellation between attempts.
func ExecuteWithRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil || config.MaxRetries <= 0 {
		return fn()
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var re *retryableError
		retryable := errors.As(err, &re) && re.retryable
		if !retryable {
			retryable = isRetryableError(err)
		}
		if !retryable || attempt >= config.MaxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}
