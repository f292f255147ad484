package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/api"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.universalads.com/v1"

// Options configures the client behavior.
type Options struct {
	baseURL          string
	timeout          time.Duration
	maxRetries       int
	retryWaitMin     time.Duration
	retryWaitMax     time.Duration
	retryStatuses    []int
	retryOnRateLimit bool
	httpClient       api.HttpRequestDoer
	logger           *slog.Logger
	now              func() time.Time
}

func defaultOptions() *Options {
	return &Options{
		baseURL:      DefaultBaseURL,
		timeout:      30 * time.Second,
		maxRetries:   3,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 30 * time.Second,
		retryStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		retryOnRateLimit: true,
		logger:           slog.New(slog.DiscardHandler),
		now:              time.Now,
	}
}

// Option configures the client.
type Option func(*Options)

// WithBaseURL overrides the API base URL.
// Default is https://api.universalads.com/v1.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) {
		o.baseURL = baseURL
	}
}

// WithTimeout sets the per-attempt HTTP request timeout.
// It has no effect when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.timeout = d
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
// Default is 3. Set to 0 to disable retries.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.maxRetries = n
	}
}

// WithRetryWait sets the min/max retry backoff duration.
// Default is 1s min, 30s max.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(o *Options) {
		o.retryWaitMin = minWait
		o.retryWaitMax = maxWait
	}
}

// WithRetryStatuses replaces the set of HTTP statuses that are retried.
// Default is 429, 500, 502, 503 and 504.
func WithRetryStatuses(codes ...int) Option {
	return func(o *Options) {
		o.retryStatuses = append([]int(nil), codes...)
	}
}

// WithoutRateLimitRetry disables automatic retry on 429 responses.
func WithoutRateLimitRetry() Option {
	return func(o *Options) {
		o.retryOnRateLimit = false
	}
}

// WithHTTPClient sets the HTTP client used for every request, including
// presigned uploads. The client must be safe for concurrent use.
func WithHTTPClient(doer api.HttpRequestDoer) Option {
	return func(o *Options) {
		o.httpClient = doer
	}
}

// WithLogger sets the logger for request and retry diagnostics.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithClock overrides the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}
