package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/festy23/gitlab_enricher/pkg/retry"
)

func TestAPIError_IsNotFound(t *testing.T) {
	notFound := &APIError{StatusCode: 404, Message: "404 Project Not Found"}
	forbidden := &APIError{StatusCode: 403}

	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("find project 2: %w", notFound), ErrNotFound)
	assert.NotErrorIs(t, forbidden, ErrNotFound)

	assert.Equal(t, "gitlab api error: status 404: 404 Project Not Found", notFound.Error())
	assert.Equal(t, "gitlab api error: status 403", forbidden.Error())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "server error", err: &APIError{StatusCode: 502}, want: true},
		{name: "rate limited", err: &APIError{StatusCode: 429}, want: true},
		{name: "not found", err: &APIError{StatusCode: 404}, want: false},
		{name: "unauthorized", err: &APIError{StatusCode: 401}, want: false},
		{name: "network", err: &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, want: true},
		{name: "truncated body", err: fmt.Errorf("read: %w", io.ErrUnexpectedEOF), want: true},
		{name: "payload", err: fmt.Errorf("decode: %w", ErrUnexpectedPayload), want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(&retry.ExhaustedError{Attempts: 3, Err: errors.New("timeout")}))
	assert.True(t, IsRecoverable(fmt.Errorf("notes: %w", &APIError{StatusCode: 500})))
	assert.False(t, IsRecoverable(ErrUnexpectedPayload))
	assert.False(t, IsRecoverable(errors.New("nil map")))
}

func TestErrorKindAndStatusCode(t *testing.T) {
	exhausted := &retry.ExhaustedError{Attempts: 3, Err: &APIError{StatusCode: 503}}

	assert.Equal(t, "retry_exhausted", ErrorKind(exhausted))
	assert.Equal(t, 503, StatusCode(exhausted))
	assert.Equal(t, "api_error", ErrorKind(&APIError{StatusCode: 403}))
	assert.Equal(t, "unexpected_payload", ErrorKind(ErrUnexpectedPayload))
	assert.Equal(t, "*errors.errorString", ErrorKind(errors.New("x")))
	assert.Equal(t, 0, StatusCode(errors.New("x")))
}

func TestRetryConfig(t *testing.T) {
	cfg := RetryConfig(retry.HTTPConfig())

	assert.NotNil(t, cfg.Retryable)
	assert.True(t, cfg.Retryable(&APIError{StatusCode: 500}))
	assert.False(t, cfg.Retryable(&APIError{StatusCode: 404}))
}
