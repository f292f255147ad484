package client

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Retrier handles retry logic with exponential backoff.
// It is safe for concurrent use by multiple goroutines.
type Retrier struct {
	maxRetries    int
	retryWaitMin  time.Duration
	retryWaitMax  time.Duration
	retryStatuses map[int]bool
	logger        *slog.Logger
}

func newRetrier(opts *Options) *Retrier {
	statuses := make(map[int]bool, len(opts.retryStatuses))
	for _, code := range opts.retryStatuses {
		statuses[code] = true
	}
	if !opts.retryOnRateLimit {
		delete(statuses, http.StatusTooManyRequests)
	}

	return &Retrier{
		maxRetries:    opts.maxRetries,
		retryWaitMin:  opts.retryWaitMin,
		retryWaitMax:  opts.retryWaitMax,
		retryStatuses: statuses,
		logger:        opts.logger,
	}
}

// idempotentMethods may be re-sent after the server has seen the request.
var idempotentMethods = map[string]bool{
	http.MethodHead:    true,
	http.MethodGet:     true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Do executes fn with retry logic for a request with the given method. It
// returns the number of attempts made and the last error.
//
// Retryable statuses and read failures are retried for idempotent methods
// only. Connection failures are retried for every method, since the server
// never saw the request. When the attempts run out on a retryable status the
// last *APIError is returned wrapped in a *TransportError.
func (r *Retrier) Do(ctx context.Context, method string, fn func() error) (int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := r.wait(attempt, lastErr)
			r.logger.DebugContext(ctx, "retrying request",
				slog.String("method", method),
				slog.Int("attempt", attempt+1),
				slog.Duration("wait", wait),
				slog.Any("error", lastErr),
			)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return attempts, ctx.Err()
			}
		}

		attempts++
		lastErr = fn()
		if lastErr == nil {
			return attempts, nil
		}

		if !r.shouldRetry(ctx, method, lastErr) {
			return attempts, lastErr
		}
	}

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) && !IsTransportError(lastErr) {
		return attempts, &TransportError{Err: lastErr}
	}
	return attempts, lastErr
}

func (r *Retrier) shouldRetry(ctx context.Context, method string, err error) bool {
	idempotent := idempotentMethods[method]

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return idempotent && r.retryStatuses[apiErr.StatusCode]
	}

	// Retry connection failures unless the caller gave up
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if ctx.Err() != nil {
			return false
		}
		return idempotent || isConnectError(err)
	}

	return false
}

// isConnectError reports whether err happened before the request was sent.
func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// wait returns the backoff before attempt, stretched to a server-provided
// Retry-After when that is longer. The result never exceeds retryWaitMax.
func (r *Retrier) wait(attempt int, lastErr error) time.Duration {
	wait := r.backoff(attempt)

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > wait {
		wait = apiErr.RetryAfter
	}

	if wait > r.retryWaitMax {
		wait = r.retryWaitMax
	}
	return wait
}

// backoff returns retryWaitMin·2^attempt plus jitter in [0, retryWaitMin),
// capped at retryWaitMax.
func (r *Retrier) backoff(attempt int) time.Duration {
	exp := min(attempt, 10)
	wait := time.Duration(math.Pow(2, float64(exp))) * r.retryWaitMin
	wait += time.Duration(rand.Int64N(int64(r.retryWaitMin)))
	return min(wait, r.retryWaitMax)
}
