package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty completion")

// HTTPError is a non-2xx answer from a provider API.
type HTTPError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Body)
}

// HTTPStatusCode returns the response status.
func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// RefusalError means the provider declined to answer (safety block, refusal, content filter).
// Retrying the same prompt will not help.
type RefusalError struct {
	Provider Provider
	Reason   string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("%s refused the request: %s", e.Provider, e.Reason)
}

// IsRetryableHTTPStatus reports whether a status code is worth retrying.
func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryable reports whether err is a transient transport failure.
// Cancellation of the caller's context is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var refusal *RefusalError
	if errors.As(err, &refusal) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return IsRetryableHTTPStatus(httpErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Unknown provider failures are treated as transient.
	return true
}
