package openrouter

import (
	"errors"
	"fmt"
	"time"

	"github.com/cardgenio/cardgen-api/internal/schema"
)

// Configuration and input-validation errors. These fail fast and never
// cause a network call.
var (
	// ErrMissingAPIKey is returned when a client is constructed without
	// an API key.
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrEmptyModelName is returned when SetModel is called with an
	// empty model name.
	ErrEmptyModelName = errors.New("model name cannot be empty")

	// ErrNoMessages is returned when SendChatCompletion is called with
	// an empty message list.
	ErrNoMessages = errors.New("messages cannot be empty")
)

// Each failure of a completion exchange is classified into exactly one
// of the error types below. Every type reports a stable kind label for
// audit records and whether another attempt could succeed. Callers
// match concrete types with errors.As.

// AuthError indicates the API rejected the credentials (HTTP 401).
// Never retryable.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ErrorKind returns the stable label for this error class.
func (e *AuthError) ErrorKind() string { return "AuthError" }

// Retryable reports whether a later attempt could succeed.
func (e *AuthError) Retryable() bool { return false }

// RateLimitError indicates the API throttled the request (HTTP 429).
// RetryAfter carries the server-specified wait when the response
// included a Retry-After header, zero otherwise.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Message }

// ErrorKind returns the stable label for this error class.
func (e *RateLimitError) ErrorKind() string { return "RateLimitError" }

// Retryable reports whether a later attempt could succeed.
func (e *RateLimitError) Retryable() bool { return true }

// ResponseParseError indicates the response envelope or the model's
// textual answer could not be decoded. Never retryable: the exchange
// itself succeeded, so a retry would burn tokens for the same answer.
type ResponseParseError struct {
	Message string
}

func (e *ResponseParseError) Error() string { return e.Message }

// ErrorKind returns the stable label for this error class.
func (e *ResponseParseError) ErrorKind() string { return "ResponseParseError" }

// Retryable reports whether a later attempt could succeed.
func (e *ResponseParseError) Retryable() bool { return false }

// SchemaValidationError indicates the decoded answer does not conform
// to the declared response schema. Violations lists every broken rule
// with its JSON path. Never retryable.
type SchemaValidationError struct {
	Message    string
	Violations []schema.Violation
}

func (e *SchemaValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Violations)
}

// ErrorKind returns the stable label for this error class.
func (e *SchemaValidationError) ErrorKind() string { return "SchemaValidationError" }

// Retryable reports whether a later attempt could succeed.
func (e *SchemaValidationError) Retryable() bool { return false }

// NetworkError indicates the request produced no HTTP response at all:
// timeout, DNS failure, connection refused. Retryable.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string { return e.Message }

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// ErrorKind returns the stable label for this error class.
func (e *NetworkError) ErrorKind() string { return "NetworkError" }

// Retryable reports whether a later attempt could succeed.
func (e *NetworkError) Retryable() bool { return true }

// ServerError indicates an HTTP 5xx response. Retryable.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.Status, e.Message)
}

// ErrorKind returns the stable label for this error class.
func (e *ServerError) ErrorKind() string { return "ServerError" }

// Retryable reports whether a later attempt could succeed.
func (e *ServerError) Retryable() bool { return true }

// HTTPError indicates any other HTTP error status (e.g. 400). Not
// retryable: a request the server already rejected as malformed will
// not succeed by being repeated.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.Status, e.Message)
}

// ErrorKind returns the stable label for this error class.
func (e *HTTPError) ErrorKind() string { return "HTTPError" }

// Retryable reports whether a later attempt could succeed.
func (e *HTTPError) Retryable() bool { return false }

// IsRetryable reports whether another attempt could succeed for err.
// Errors outside the classification above default to retryable.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
