package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/festy23/gitlab_enricher/pkg/retry"
)

var (
	// ErrNotFound matches an *APIError with status 404.
	ErrNotFound = errors.New("gitlab resource not found")
	// ErrUnexpectedPayload indicates a response body that does not have the
	// expected shape.
	ErrUnexpectedPayload = errors.New("unexpected gitlab payload")
)

// APIError is a non-2xx response from the GitLab API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gitlab api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gitlab api error: status %d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) work for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsTransient reports whether err is worth retrying: network failures,
// rate limiting and server-side errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnexpectedPayload) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// IsRecoverable reports whether err belongs to the categories a sub-resource
// fetch may absorb: exhausted retries or a remote API fault.
func IsRecoverable(err error) bool {
	if retry.IsExhausted(err) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// RetryConfig returns cfg with the transient-error classifier installed.
func RetryConfig(cfg retry.Config) retry.Config {
	cfg.Retryable = IsTransient
	return cfg
}

// StatusCode returns the HTTP status carried by err, or 0 if none.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrorKind names the category of err for log fields.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case retry.IsExhausted(err):
		return "retry_exhausted"
	case errors.Is(err, ErrUnexpectedPayload):
		return "unexpected_payload"
	case StatusCode(err) != 0:
		return "api_error"
	default:
		return fmt.Sprintf("%T", err)
	}
}
