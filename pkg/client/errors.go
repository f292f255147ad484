package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/auth"
)

// Common errors
var (
	ErrInvalidResponse = errors.New("invalid response body")
	ErrMissingField    = errors.New("missing field in response")
)

// APIError represents an HTTP response with status 400 or above.
//
// Data holds the decoded JSON body. When the body is not a JSON object it
// holds the raw text under the "message" key.
type APIError struct {
	StatusCode int
	Message    string
	Data       map[string]any
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %s (status %d)", e.Message, e.StatusCode)
}

// TransportError represents a request that produced no usable HTTP
// response: connection failures, timeouts, cancellation, and retries that
// ran out on a retryable status. In the last case Err is the final
// *APIError. Attempts counts the requests made, retries included.
type TransportError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("request failed: %s: %v (after %d attempts)", e.Op, e.Err, e.Attempts)
	}
	return fmt.Sprintf("request failed: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents a failure to set up request signing.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to initialize authenticator: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// UploadError represents a rejected PUT to a presigned upload URL.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("presigned upload failed (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("presigned upload failed (status %d)", e.StatusCode)
}

// IsAPIError returns true if the error is an HTTP error response.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsTransportError returns true if no HTTP response was received or the
// retries were exhausted.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAuthError returns true if the error is authentication-related.
func IsAuthError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsKeyFormatError returns true if the private key could not be loaded.
func IsKeyFormatError(err error) bool {
	var ke *auth.KeyFormatError
	return errors.As(err, &ke)
}

// IsSigningError returns true if a request could not be signed.
func IsSigningError(err error) bool {
	var se *auth.SigningError
	return errors.As(err, &se)
}

// StatusCode returns the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
